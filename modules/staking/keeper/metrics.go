package keeper

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this package.
	MetricsSubsystem = "staking"
)

// Metrics contains metrics exposed by this package.
// Each metric is annotated with `metrics_labels` tag, which lists the labels
// used by the metric.
type Metrics struct {
	// Delegation
	DelegationsTotal   metrics.Counter `metrics_labels:"type"`
	DelegatedAmount    metrics.Counter `metrics_labels:"type"`
	UnbondingQueueSize metrics.Gauge

	// Block hooks
	RewardMintedTotal       metrics.Counter
	RewardRemainder         metrics.Gauge
	UnbondsPaidTotal        metrics.Counter
	UnbondDrainCappedTotal  metrics.Counter
	VotingPowerUpdatesTotal metrics.Counter
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}

	return &Metrics{
		DelegationsTotal: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "delegations_total",
			Help:      "Number of accepted delegate and undelegate calls.",
		}, append(labels, "type")).With(labelsAndValues...),
		DelegatedAmount: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "delegated_amount_total",
			Help:      "Amount of tokens delegated and undelegated.",
		}, append(labels, "type")).With(labelsAndValues...),
		UnbondingQueueSize: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "unbonding_queue_size",
			Help:      "Number of unbonds waiting for maturity.",
		}, labels).With(labelsAndValues...),

		RewardMintedTotal: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "reward_minted_total",
			Help:      "Amount of block reward minted.",
		}, labels).With(labelsAndValues...),
		RewardRemainder: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "reward_remainder",
			Help:      "Minted reward not yet attributed to delegators.",
		}, labels).With(labelsAndValues...),
		UnbondsPaidTotal: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "unbonds_paid_total",
			Help:      "Number of matured unbonds paid out.",
		}, labels).With(labelsAndValues...),
		UnbondDrainCappedTotal: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "unbond_drain_capped_total",
			Help:      "Number of blocks whose unbond payouts hit the per-block cap.",
		}, labels).With(labelsAndValues...),
		VotingPowerUpdatesTotal: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "voting_power_updates_total",
			Help:      "Number of voting power reports sent to consensus.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		DelegationsTotal:   discard.NewCounter(),
		DelegatedAmount:    discard.NewCounter(),
		UnbondingQueueSize: discard.NewGauge(),

		RewardMintedTotal:       discard.NewCounter(),
		RewardRemainder:         discard.NewGauge(),
		UnbondsPaidTotal:        discard.NewCounter(),
		UnbondDrainCappedTotal:  discard.NewCounter(),
		VotingPowerUpdatesTotal: discard.NewCounter(),
	}
}
