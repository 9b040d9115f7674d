// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package market reads the lifecycle phase of prediction market contracts.
package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"code.funtury.io/predictmarket/client/eth"
	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/crypto"
	"code.funtury.io/predictmarket/logging"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

// MarketCallers gives read access to market contracts.
type MarketCallers interface {
	MarketCaller(address ethcommon.Address) (eth.MarketCaller, error)
}

// ContractVerifier checks that an address holds contract code.
type ContractVerifier interface {
	VerifyContract(ctx context.Context, address ethcommon.Address) error
}

type Oracle struct {
	log      *logging.Logger
	callers  MarketCallers
	verifier ContractVerifier
	verified sync.Map

	mu  sync.RWMutex
	cfg Config
}

func NewOracle(log *logging.Logger, cfg Config, callers MarketCallers) *Oracle {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Oracle{
		log:     log,
		cfg:     cfg,
		callers: callers,
	}
}

// WithVerifier makes the oracle check, once per market, that the address
// holds a contract before reading its state.
func (o *Oracle) WithVerifier(v ContractVerifier) *Oracle {
	o.verifier = v
	return o
}

// ReloadConf updates the internal configuration.
func (o *Oracle) ReloadConf(cfg Config) {
	o.log.Info("reloading configuration")
	if o.log.GetLevel() != cfg.Level.Get() {
		o.log.Info("updating log level",
			logging.String("old", o.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		o.log.SetLevel(cfg.Level.Get())
	}

	o.mu.Lock()
	o.cfg = cfg
	o.mu.Unlock()
}

func (o *Oracle) callTimeout() time.Duration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.cfg.CallTimeout.Get()
}

// GetMarketState returns the phase the market contract reports. Any failure
// to obtain it is reported as types.ErrMarketUnavailable.
func (o *Oracle) GetMarketState(ctx context.Context, market string) (types.MarketState, error) {
	if !crypto.EthereumIsValidAddress(market) {
		return "", fmt.Errorf("%w: %q", types.ErrInvalidMarketAddress, market)
	}

	address := ethcommon.HexToAddress(market)
	caller, err := o.callers.MarketCaller(address)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrMarketUnavailable, market, err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.callTimeout())
	defer cancel()

	if err := o.verify(ctx, address); err != nil {
		return "", err
	}

	raw, err := caller.GetMarketState(&bind.CallOpts{Context: ctx})
	if err != nil {
		o.log.Warn("could not read market state",
			logging.MarketAddress(market),
			logging.Error(err))
		return "", fmt.Errorf("%w: %s: %v", types.ErrMarketUnavailable, market, err)
	}

	state, err := types.ParseMarketState(raw)
	if err != nil {
		o.log.Warn("market contract returned an unknown state",
			logging.MarketAddress(market),
			logging.String("state", raw))
		return "", err
	}

	o.log.Debug("market state",
		logging.MarketAddress(market),
		logging.String("state", string(state)))
	return state, nil
}

func (o *Oracle) verify(ctx context.Context, address ethcommon.Address) error {
	if o.verifier == nil {
		return nil
	}
	if _, ok := o.verified.Load(address); ok {
		return nil
	}
	if err := o.verifier.VerifyContract(ctx, address); err != nil {
		if errors.Is(err, eth.ErrNoContractCode) {
			return fmt.Errorf("%w: %s is not a contract", types.ErrInvalidMarketAddress, address.Hex())
		}
		return fmt.Errorf("%w: %s: %v", types.ErrMarketUnavailable, address.Hex(), err)
	}
	o.verified.Store(address, struct{}{})
	return nil
}

// EnsureActive rejects markets that are not trading. A market whose state
// cannot be read is rejected too.
func (o *Oracle) EnsureActive(ctx context.Context, market string) error {
	state, err := o.GetMarketState(ctx, market)
	if err != nil {
		return err
	}
	if !state.IsActive() {
		return fmt.Errorf("%w: market %s is %s", types.ErrMarketNotActive, market, state)
	}
	return nil
}
