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

// Package settlement moves shares on-chain for matched allocations.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"code.funtury.io/predictmarket/client/eth"
	"code.funtury.io/predictmarket/core/types"
	"code.funtury.io/predictmarket/libs/num"
	"code.funtury.io/predictmarket/logging"
	"code.funtury.io/predictmarket/metrics"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
)

var gwei = big.NewInt(1_000_000_000)

// Contracts gives write access to market contracts.
type Contracts interface {
	MarketTransactor(address ethcommon.Address) (eth.MarketTransactor, error)
	WaitMined(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error)
}

// Signer signs settlement transactions.
type Signer interface {
	Address() ethcommon.Address
	TransactOpts(chainID *big.Int) (*bind.TransactOpts, error)
}

type Engine struct {
	log       *logging.Logger
	contracts Contracts
	signer    Signer

	// one submission at a time keeps the signer's nonces in order
	mu      sync.Mutex
	chainID *big.Int

	cfgMu sync.RWMutex
	cfg   Config
}

func New(log *logging.Logger, cfg Config, contracts Contracts, signer Signer) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Engine{
		log:       log,
		cfg:       cfg,
		contracts: contracts,
		signer:    signer,
	}
}

// ReloadConf updates the internal configuration.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}

	e.cfgMu.Lock()
	e.cfg = cfg
	e.cfgMu.Unlock()
}

func (e *Engine) config() Config {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	return e.cfg
}

// TransferShares settles t on the market contract and blocks until the
// transaction is mined or the configured timeout expires. The returned
// receipt is non-nil whenever the transaction was broadcast, so failures
// after broadcast still carry the transaction hash.
func (e *Engine) TransferShares(ctx context.Context, t types.Transfer) (*types.Receipt, error) {
	done := metrics.StartSettlement()

	price, err := num.ToFixedPoint(t.Price, num.SettlementDecimals)
	if err != nil {
		done("error")
		metrics.SettlementFailureInc("price")
		return nil, fmt.Errorf("%w: %v", types.ErrSettlementPriceInvalid, err)
	}
	amount := new(big.Int).SetUint64(t.Amount)

	cfg := e.config()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout.Get())
	defer cancel()

	tx, err := e.submit(ctx, cfg, t, price.BigInt(), amount)
	if err != nil {
		done("error")
		metrics.SettlementFailureInc("submit")
		e.log.Warn("could not submit share transfer",
			logging.Transfer(t),
			logging.Error(err))
		return nil, fmt.Errorf("%w: %v", types.ErrSettlement, err)
	}

	hash := tx.Hash().Hex()
	e.log.Debug("share transfer submitted",
		logging.TxHash(hash),
		logging.Decimal("price", t.Price),
		logging.String("fixed-point-price", price.String()),
		logging.Transfer(t))

	r, err := e.contracts.WaitMined(ctx, tx)
	if err != nil {
		done("error")
		receipt := &types.Receipt{TxHash: hash}
		if errors.Is(err, context.DeadlineExceeded) {
			metrics.SettlementFailureInc("timeout")
			// the transaction may still be mined later
			e.log.Error("timed out waiting for share transfer receipt",
				logging.TxHash(hash),
				logging.Transfer(t))
			return receipt, fmt.Errorf("%w: tx(%s)", types.ErrSettlementTimeout, hash)
		}
		metrics.SettlementFailureInc("receipt")
		e.log.Error("could not get share transfer receipt",
			logging.TxHash(hash),
			logging.Error(err))
		return receipt, fmt.Errorf("%w: tx(%s): %v", types.ErrSettlement, hash, err)
	}

	receipt := &types.Receipt{
		TxHash: hash,
		Status: types.ReceiptStatus(r.Status),
	}
	if r.BlockNumber != nil {
		receipt.BlockNumber = r.BlockNumber.Uint64()
	}

	if !receipt.Committed() {
		done("reverted")
		metrics.SettlementFailureInc("reverted")
		e.log.Warn("share transfer reverted",
			logging.TxHash(hash),
			logging.Transfer(t))
		return receipt, fmt.Errorf("%w: tx(%s)", types.ErrSettlementReverted, hash)
	}

	done("committed")
	e.log.Info("share transfer committed",
		logging.TxHash(hash),
		logging.Uint64("block", receipt.BlockNumber),
		logging.Transfer(t))
	return receipt, nil
}

// submit broadcasts the transfer. Every attempt reuses the nonce fetched
// before the first one, so an attempt that did reach the node is replaced
// rather than duplicated. Only submission holds the lock, waiting for the
// receipt does not.
func (e *Engine) submit(ctx context.Context, cfg Config, t types.Transfer, price, amount *big.Int) (*ethtypes.Transaction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	opts, err := e.transactOpts(ctx, cfg)
	if err != nil {
		return nil, err
	}

	nonce, err := e.contracts.PendingNonceAt(ctx, opts.From)
	if err != nil {
		return nil, fmt.Errorf("could not get pending nonce: %w", err)
	}
	opts.Nonce = new(big.Int).SetUint64(nonce)

	transactor, err := e.contracts.MarketTransactor(ethcommon.HexToAddress(t.Market))
	if err != nil {
		return nil, err
	}

	seller := ethcommon.HexToAddress(t.Seller)
	buyer := ethcommon.HexToAddress(t.Buyer)

	var tx *ethtypes.Transaction
	op := func() error {
		var err error
		tx, err = transactor.TransferShares(opts, seller, buyer, t.IsYes, price, amount)
		return err
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = cfg.RetryInitialInterval.Get()
	bo := backoff.WithContext(backoff.WithMaxRetries(expBackoff, cfg.MaxRetries), ctx)

	notify := func(err error, next time.Duration) {
		e.log.Warn("share transfer submission failed, retrying",
			logging.Uint64("nonce", nonce),
			logging.Error(err),
			logging.Duration("in", next))
	}
	if err := backoff.RetryNotify(op, bo, notify); err != nil {
		return nil, err
	}
	return tx, nil
}

func (e *Engine) transactOpts(ctx context.Context, cfg Config) (*bind.TransactOpts, error) {
	if e.chainID == nil {
		id, err := e.contracts.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not get chain id: %w", err)
		}
		e.chainID = id
	}

	opts, err := e.signer.TransactOpts(e.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	opts.GasLimit = cfg.GasLimit
	if cfg.GasPriceGwei > 0 {
		opts.GasPrice = new(big.Int).Mul(new(big.Int).SetUint64(cfg.GasPriceGwei), gwei)
	}
	return opts, nil
}
