package simapp

import (
	"fmt"
	"time"

	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"

	stakingtypes "github.com/evstack/ev-staking/modules/staking/types"
)

// Account is a genesis ledger balance.
type Account struct {
	Address sdk.AccAddress `json:"address"`
	Coins   sdk.Coins      `json:"coins"`
}

// Genesis is the initial state of the simulated chain. The staking module
// account is funded with exactly what the staking state holds.
type Genesis struct {
	Time     time.Time                  `json:"time"`
	Accounts []Account                  `json:"accounts"`
	Staking  *stakingtypes.GenesisState `json:"staking"`
}

// DefaultGenesis returns a genesis with the given accounts and default staking state.
func DefaultGenesis(accounts ...Account) Genesis {
	return Genesis{
		Accounts: accounts,
		Staking:  stakingtypes.DefaultGenesisState(),
	}
}

// Validate performs basic genesis validation.
func (g Genesis) Validate() error {
	if g.Staking == nil {
		return fmt.Errorf("missing staking genesis")
	}
	seen := make(map[string]bool, len(g.Accounts))
	for _, acc := range g.Accounts {
		if acc.Address.Empty() {
			return fmt.Errorf("account with empty address")
		}
		if seen[string(acc.Address)] {
			return fmt.Errorf("duplicate account %s", acc.Address)
		}
		seen[string(acc.Address)] = true
		if err := acc.Coins.Validate(); err != nil {
			return fmt.Errorf("account %s: %w", acc.Address, err)
		}
	}
	return g.Staking.Validate()
}

func (g Genesis) bankBalances() []banktypes.Balance {
	balances := make([]banktypes.Balance, 0, len(g.Accounts)+1)
	for _, acc := range g.Accounts {
		if acc.Coins.IsZero() {
			continue
		}
		balances = append(balances, banktypes.Balance{Address: acc.Address.String(), Coins: acc.Coins})
	}
	if held := g.Staking.ModuleBalance(); held.IsPositive() {
		balances = append(balances, banktypes.Balance{
			Address: authtypes.NewModuleAddress(stakingtypes.ModuleName).String(),
			Coins:   sdk.NewCoins(sdk.NewCoin(g.Staking.Params.BondDenom, held)),
		})
	}
	return balances
}
