package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"cosmossdk.io/log"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	stakingkeeper "github.com/evstack/ev-staking/modules/staking/keeper"
	stakingtypes "github.com/evstack/ev-staking/modules/staking/types"
	"github.com/evstack/ev-staking/pkg/simapp"
	"github.com/evstack/ev-staking/pkg/store"
)

const (
	flagScenario        = "scenario"
	flagBlocks          = "blocks"
	flagHome            = "home"
	flagLogLevel        = "log-level"
	flagLogFormat       = "log-format"
	flagMetricsAddr     = "metrics-addr"
	flagCheckInvariants = "check-invariants"
	flagSummary         = "summary"
)

// NewRootCmd creates the staking-sim command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "staking-sim",
		Short: "Run a staking scenario block by block",
		Long: `Runs the staking module on an in-process chain with real auth and bank state.
Each block mints the block reward, applies the scenario txs for its height and
pays out matured unbonds. The voting power reported at each height is printed as JSON.`,
		SilenceUsage:               true,
		SuggestionsMinimumDistance: 2,
		RunE:                       runSimulation,
	}

	rootCmd.Flags().String(flagScenario, "", "Path to the JSON scenario file")
	rootCmd.Flags().Int64(flagBlocks, 0, "Number of blocks to run, overrides the scenario")
	rootCmd.Flags().String(flagHome, "", "Directory for app state, in-memory when empty")
	rootCmd.Flags().String(flagLogLevel, zerolog.InfoLevel.String(), "Log level (debug|info|warn|error)")
	rootCmd.Flags().String(flagLogFormat, "plain", "Log format (plain|json)")
	rootCmd.Flags().String(flagMetricsAddr, "", "Serve Prometheus metrics on this address while running")
	rootCmd.Flags().Bool(flagCheckInvariants, true, "Halt when a staking invariant breaks")
	rootCmd.Flags().String(flagSummary, "", "Write the final staking state as JSON to this file")

	_ = rootCmd.MarkFlagRequired(flagScenario)
	return rootCmd
}

// BlockOutput is the per-height result written to stdout.
type BlockOutput struct {
	Height      int64               `json:"height"`
	AppHash     string              `json:"app_hash"`
	FailedTxs   []string            `json:"failed_txs,omitempty"`
	VotingPower []store.PowerReport `json:"voting_power"`
}

// StateSummary is the staking state after the last block.
type StateSummary struct {
	Height         uint64                       `json:"height"`
	Validators     []stakingtypes.ValidatorInfo `json:"validators"`
	UnbondingQueue []stakingtypes.Unbond        `json:"unbonding_queue"`
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	scenarioPath, err := cmd.Flags().GetString(flagScenario)
	if err != nil {
		return err
	}
	blocks, err := cmd.Flags().GetInt64(flagBlocks)
	if err != nil {
		return err
	}
	home, err := cmd.Flags().GetString(flagHome)
	if err != nil {
		return err
	}
	metricsAddr, err := cmd.Flags().GetString(flagMetricsAddr)
	if err != nil {
		return err
	}
	checkInvariants, err := cmd.Flags().GetBool(flagCheckInvariants)
	if err != nil {
		return err
	}
	summaryPath, err := cmd.Flags().GetString(flagSummary)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	scenario, err := LoadScenario(scenarioPath)
	if err != nil {
		return err
	}
	if blocks > 0 {
		scenario.Blocks = blocks
	}

	opts := []simapp.Option{simapp.WithInvariantChecks(checkInvariants)}
	if scenario.ChainID != "" {
		opts = append(opts, simapp.WithChainID(scenario.ChainID))
	}
	if home != "" {
		db, err := dbm.NewDB("application", dbm.GoLevelDBBackend, filepath.Join(home, "data"))
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		opts = append(opts, simapp.WithDB(db))
	}
	if metricsAddr != "" {
		opts = append(opts, simapp.WithMetrics(stakingkeeper.PrometheusMetrics("staking_sim", "chain_id", scenario.ChainID)))
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	done := make(chan struct{})
	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			select {
			case <-ctx.Done():
			case <-done:
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}
	g.Go(func() error {
		defer close(done)
		summary, err := Run(ctx, logger, scenario, cmd.OutOrStdout(), opts...)
		if err != nil {
			return err
		}
		if summaryPath == "" {
			return nil
		}
		bz, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(summaryPath, bz, 0o600)
	})
	return g.Wait()
}

// Run executes the scenario and writes one JSON line per block to out. A db
// that already holds the chain is resumed from its last block, genesis is
// only applied to an empty one.
func Run(ctx context.Context, logger log.Logger, scenario *Scenario, out io.Writer, opts ...simapp.Option) (*StateSummary, error) {
	txs, err := scenario.TxsByHeight()
	if err != nil {
		return nil, err
	}
	app, err := simapp.New(logger, opts...)
	if err != nil {
		return nil, err
	}
	if !app.Initialized() {
		if err := app.InitChain(scenario.Genesis); err != nil {
			return nil, fmt.Errorf("init chain: %w", err)
		}
	}

	enc := json.NewEncoder(out)
	for i := int64(0); i < scenario.Blocks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		height := app.LastBlockHeight() + 1
		resp, err := app.FinalizeBlock(txs[height])
		if err != nil {
			return nil, err
		}
		power, err := store.VotingPower(resp)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", height, err)
		}

		output := BlockOutput{
			Height:      height,
			AppHash:     fmt.Sprintf("%X", resp.AppHash),
			VotingPower: power,
		}
		for _, r := range resp.TxResults {
			if r.Code != 0 {
				output.FailedTxs = append(output.FailedTxs, r.Log)
			}
		}
		if err := enc.Encode(output); err != nil {
			return nil, err
		}
	}
	logger.Info("simulation finished", "blocks", scenario.Blocks, "height", app.LastBlockHeight())
	return summarize(app)
}

func summarize(app *simapp.App) (*StateSummary, error) {
	ctx, q := app.Context(), app.Querier()
	height, err := q.Height(ctx)
	if err != nil {
		return nil, err
	}
	vals, err := q.Validators(ctx)
	if err != nil {
		return nil, err
	}
	queue, err := q.UnbondingQueue(ctx)
	if err != nil {
		return nil, err
	}
	return &StateSummary{Height: height, Validators: vals, UnbondingQueue: queue}, nil
}

func newLogger(cmd *cobra.Command) (log.Logger, error) {
	levelStr, err := cmd.Flags().GetString(flagLogLevel)
	if err != nil {
		return nil, err
	}
	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelStr, err)
	}
	format, err := cmd.Flags().GetString(flagLogFormat)
	if err != nil {
		return nil, err
	}

	opts := []log.Option{log.LevelOption(level)}
	switch format {
	case "json":
		opts = append(opts, log.OutputJSONOption())
	case "plain":
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
	return log.NewLogger(os.Stderr, opts...), nil
}
