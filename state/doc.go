// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the engine's persisted slots.
// It follows the flow as bellow:
//
//	         o
//	         |
//	[ revertable state ]
//	         |
//	  [ stacked map ] -> [ journal ] -> [ stage ] -> [ kv bulk write ]
//	         |
//	  [ slot cache ]
//	         |
//	   [ kv store ]
//
// Slots are addressed by a space (the owning service's address) and a 32 bytes key.
// Values are raw rlp; an empty value means the slot is absent.
package state
