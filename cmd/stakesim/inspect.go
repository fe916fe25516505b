// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"

	"github.com/vechain/dappstaking/types"
)

var dumper = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, DisableCapacities: true, SortKeys: true}

// inspect dumps the protocol state, the ledger and the stakes of account.
func inspect(n *node, account types.Address, w io.Writer) error {
	ps, err := n.engine.ProtocolState()
	if err != nil {
		return err
	}
	ledger, err := n.engine.Ledger(account)
	if err != nil {
		return err
	}
	free, err := n.balances.FreeBalance(account)
	if err != nil {
		return err
	}
	contracts, err := n.engine.StakedContracts(account)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "account %s, free balance %s\n", account, free)
	fmt.Fprintln(w, "protocol:")
	dumper.Fdump(w, ps)
	fmt.Fprintln(w, "ledger:")
	dumper.Fdump(w, ledger)
	for _, contract := range contracts {
		info, err := n.engine.StakerInfo(account, contract)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "stake on %s:\n", contract)
		dumper.Fdump(w, info)
	}
	return nil
}
