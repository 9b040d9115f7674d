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

package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"code.funtury.io/predictmarket/client/eth/market"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

var ErrNoContractCode = errors.New("no contract code at address")

// ETHClient is the subset of the ethereum RPC client the node relies on.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/eth_client_mock.go -package mocks code.funtury.io/predictmarket/client/eth ETHClient
type ETHClient interface {
	bind.ContractBackend
	TransactionReceipt(ctx context.Context, txHash ethcommon.Hash) (*ethtypes.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
}

// MarketCaller reads the state of a prediction market contract.
type MarketCaller interface {
	GetMarketState(opts *bind.CallOpts) (string, error)
}

// MarketTransactor submits share transfers to a prediction market contract.
type MarketTransactor interface {
	TransferShares(opts *bind.TransactOpts, seller, buyer ethcommon.Address, isYes bool, price, amount *big.Int) (*ethtypes.Transaction, error)
}

// Contracts gives access to the market contracts and to receipt tracking.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/contracts_mock.go -package mocks code.funtury.io/predictmarket/client/eth Contracts,MarketCaller,MarketTransactor
type Contracts interface {
	MarketCaller(address ethcommon.Address) (MarketCaller, error)
	MarketTransactor(address ethcommon.Address) (MarketTransactor, error)
	WaitMined(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error)
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account ethcommon.Address) (uint64, error)
}

type Client struct {
	ETHClient

	// bindings are stateless, one per market is enough
	mu      sync.Mutex
	markets map[ethcommon.Address]*market.PredictionMarket
}

func Dial(ctx context.Context, rawURL string) (*Client, error) {
	ethClient, err := ethclient.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("could not instantiate ethereum client: %w", err)
	}

	return NewClient(ethClient), nil
}

func NewClient(c ETHClient) *Client {
	return &Client{
		ETHClient: c,
		markets:   map[ethcommon.Address]*market.PredictionMarket{},
	}
}

func (c *Client) MarketCaller(address ethcommon.Address) (MarketCaller, error) {
	m, err := c.market(address)
	if err != nil {
		return nil, err
	}
	return &m.PredictionMarketCaller, nil
}

func (c *Client) MarketTransactor(address ethcommon.Address) (MarketTransactor, error) {
	m, err := c.market(address)
	if err != nil {
		return nil, err
	}
	return &m.PredictionMarketTransactor, nil
}

func (c *Client) market(address ethcommon.Address) (*market.PredictionMarket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.markets[address]; ok {
		return m, nil
	}
	m, err := market.NewPredictionMarket(address, c.ETHClient)
	if err != nil {
		return nil, fmt.Errorf("could not bind market contract %s: %w", address.Hex(), err)
	}
	c.markets[address] = m
	return m, nil
}

// Close releases the underlying connection when it holds one.
func (c *Client) Close() {
	if closer, ok := c.ETHClient.(interface{ Close() }); ok {
		closer.Close()
	}
}

// WaitMined blocks until tx is mined or ctx is done.
func (c *Client) WaitMined(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
	return bind.WaitMined(ctx, c.ETHClient, tx)
}

// VerifyContract checks that some code is deployed at address.
func (c *Client) VerifyContract(ctx context.Context, address ethcommon.Address) error {
	// nil block number means latest block
	b, err := c.CodeAt(ctx, address, nil)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return fmt.Errorf("%w: %s", ErrNoContractCode, address.Hex())
	}
	return nil
}
