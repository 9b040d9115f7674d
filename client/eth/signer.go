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
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrMissingPrivateKey = errors.New("missing settlement private key")

type PrivKeySigner struct {
	privateKey *ecdsa.PrivateKey
	address    ethcommon.Address
}

func NewPrivKeySigner(hexPrivKey string) (*PrivKeySigner, error) {
	hexPrivKey = strings.TrimPrefix(strings.TrimSpace(hexPrivKey), "0x")
	if hexPrivKey == "" {
		return nil, ErrMissingPrivateKey
	}
	privateKey, err := crypto.HexToECDSA(hexPrivKey)
	if err != nil {
		return nil, fmt.Errorf("invalid settlement private key: %w", err)
	}

	return &PrivKeySigner{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

func (p *PrivKeySigner) Address() ethcommon.Address {
	return p.address
}

func (p *PrivKeySigner) Sign(hash []byte) ([]byte, error) {
	return crypto.Sign(hash, p.privateKey)
}

// TransactOpts returns options signing transactions for chainID.
func (p *PrivKeySigner) TransactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	return bind.NewKeyedTransactorWithChainID(p.privateKey, chainID)
}
