// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Bytes32 is a raw storage slot key or value.
type Bytes32 [32]byte

func (b Bytes32) String() string {
	return hexutil.Encode(b[:])
}

func (b Bytes32) Bytes() []byte {
	return b[:]
}

// IsZero reports whether the slot is empty.
func (b Bytes32) IsZero() bool {
	return b == Bytes32{}
}

// BytesToBytes32 left-pads or left-crops b to 32 bytes.
func BytesToBytes32(b []byte) Bytes32 {
	return Bytes32(common.BytesToHash(b))
}
