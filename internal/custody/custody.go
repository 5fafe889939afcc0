/*

This file contains the custody vault: one pooled balance of the staked
asset, separate from per-pool bookkeeping, representing the real
backing funds. Withdrawals assert sufficient balance before any
mutation.

*/

package custody

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

var (
	ErrInsufficientCustody = errors.New("custody balance is insufficient")
	ErrDenomMismatch       = errors.New("coin denom does not match custody denom")
	ErrNegativeAmount      = errors.New("amount is negative")
)

// Vault holds the pooled backing funds for one staked denom. Not safe
// for concurrent use; the farm engine serializes access.
type Vault struct {
	denom   string
	balance sdkmath.Int
}

// NewVault creates an empty vault for the given denom.
func NewVault(denom string) *Vault {
	return &Vault{denom: denom, balance: sdkmath.ZeroInt()}
}

// RestoreVault creates a vault holding a previously persisted balance.
// A nil or negative balance restores as zero.
func RestoreVault(denom string, balance sdkmath.Int) *Vault {
	if balance.IsNil() || balance.IsNegative() {
		balance = sdkmath.ZeroInt()
	}
	return &Vault{denom: denom, balance: balance}
}

// Denom returns the denom this vault custodies.
func (v *Vault) Denom() string {
	return v.denom
}

// Balance returns the pooled balance.
func (v *Vault) Balance() sdkmath.Int {
	return v.balance
}

// Deposit adds a coin to the pooled balance.
func (v *Vault) Deposit(coin sdk.Coin) error {
	if coin.Denom != v.denom {
		return fmt.Errorf("%w: got %s, want %s", ErrDenomMismatch, coin.Denom, v.denom)
	}
	if coin.Amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, coin.Amount)
	}
	v.balance = v.balance.Add(coin.Amount)
	return nil
}

// Withdraw removes amount from the pooled balance, failing before any
// mutation when the balance is insufficient.
func (v *Vault) Withdraw(amount sdkmath.Int) (sdk.Coin, error) {
	if amount.IsNegative() {
		return sdk.Coin{}, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	if amount.GT(v.balance) {
		return sdk.Coin{}, fmt.Errorf("%w: have %s, want %s", ErrInsufficientCustody, v.balance, amount)
	}
	v.balance = v.balance.Sub(amount)
	return sdk.NewCoin(v.denom, amount), nil
}
