// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventlog

// seq keeps the publication order, events of one block share the block number.
const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	kind INTEGER NOT NULL,
	block INTEGER NOT NULL,
	era INTEGER NOT NULL,
	period INTEGER NOT NULL,
	account BLOB(20) NOT NULL,
	contract BLOB(20) NOT NULL,
	amount BLOB NOT NULL,
	detail TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS event_i_kind ON event(kind, era);
CREATE INDEX IF NOT EXISTS event_i_account ON event(account, era);
CREATE INDEX IF NOT EXISTS event_i_contract ON event(contract, era);
CREATE INDEX IF NOT EXISTS event_i_era ON event(era);
`
