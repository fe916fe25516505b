// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package eventlog indexes committed staking events in sqlite for queries by kind, account,
// contract and era.
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/event"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/vechain/dappstaking/log"
	"github.com/vechain/dappstaking/staking"
	"github.com/vechain/dappstaking/types"
)

var logger = log.WithContext("pkg", "eventlog")

const insertEventQuery = "INSERT INTO event(kind, block, era, period, account, contract, amount, detail) VALUES(?, ?, ?, ?, ?, ?, ?, ?)"

type EventLog struct {
	path          string
	db            *sql.DB
	stmts         *stmtCache
	driverVersion string
}

// New creates or opens the event log at path.
func New(path string) (eventLog *EventLog, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open event log")
	}
	defer func() {
		if eventLog == nil {
			db.Close()
		}
	}()
	// a single connection keeps in-memory databases shared
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, errors.Wrap(err, "failed to create event table")
	}

	driverVer, _, _ := sqlite3.Version()
	return &EventLog{
		path:          path,
		db:            db,
		stmts:         newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// NewMem creates an event log in memory.
func NewMem() (*EventLog, error) {
	return New(":memory:")
}

func (el *EventLog) Close() error {
	el.stmts.Clear()
	return el.db.Close()
}

func (el *EventLog) Path() string {
	return el.path
}

// Insert stores one batch of events atomically.
func (el *EventLog) Insert(events []*staking.Event) error {
	if len(events) == 0 {
		return nil
	}
	stmt, err := el.stmts.Prepare(insertEventQuery)
	if err != nil {
		return errors.Wrap(err, "failed to prepare insert")
	}
	tx, err := el.db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin")
	}
	txStmt := tx.Stmt(stmt)
	for _, ev := range events {
		amount := ev.Amount
		if amount == nil {
			amount = new(big.Int)
		}
		if _, err := txStmt.Exec(
			uint8(ev.Kind),
			ev.Block,
			ev.Era,
			ev.Period,
			ev.Account.Bytes(),
			ev.Contract.Bytes(),
			amount.Bytes(),
			ev.Detail,
		); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "failed to insert %s", ev.Kind)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit")
	}
	metricInserted().Add(int64(len(events)))
	return nil
}

// Filter returns the stored events matching filter in publication order, or the reverse for DESC.
func (el *EventLog) Filter(ctx context.Context, filter *Filter) ([]*Record, error) {
	if filter == nil {
		filter = &Filter{}
	}
	metricsHandleFilter(filter)

	var args []any
	stmt := "SELECT seq, kind, block, era, period, account, contract, amount, detail FROM event WHERE 1"
	if filter.Kind != nil {
		args = append(args, uint8(*filter.Kind))
		stmt += " AND kind = ?"
	}
	if filter.Account != nil {
		args = append(args, filter.Account.Bytes())
		stmt += " AND account = ?"
	}
	if filter.Contract != nil {
		args = append(args, filter.Contract.Bytes())
		stmt += " AND contract = ?"
	}
	if filter.FromEra != nil {
		args = append(args, *filter.FromEra)
		stmt += " AND era >= ?"
	}
	if filter.ToEra != nil {
		args = append(args, *filter.ToEra)
		stmt += " AND era <= ?"
	}
	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}
	if filter.Limit > 0 || filter.Offset > 0 {
		limit := int64(-1)
		if filter.Limit > 0 {
			limit = int64(filter.Limit)
		}
		stmt += " LIMIT ? OFFSET ?"
		args = append(args, limit, filter.Offset)
	}
	return el.query(ctx, stmt, args...)
}

// LastBlock returns the block of the latest stored event, zero for an empty log.
func (el *EventLog) LastBlock(ctx context.Context) (types.BlockNumber, error) {
	var block sql.NullInt64
	if err := el.db.QueryRowContext(ctx, "SELECT MAX(block) FROM event").Scan(&block); err != nil {
		return 0, errors.Wrap(err, "failed to query last block")
	}
	return types.BlockNumber(block.Int64), nil
}

func (el *EventLog) query(ctx context.Context, stmt string, args ...any) ([]*Record, error) {
	rows, err := el.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query events")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			seq      uint64
			kind     uint8
			block    uint32
			era      uint32
			period   uint32
			account  []byte
			contract []byte
			amount   []byte
			detail   string
		)
		if err := rows.Scan(&seq, &kind, &block, &era, &period, &account, &contract, &amount, &detail); err != nil {
			return nil, errors.Wrap(err, "failed to scan event")
		}
		records = append(records, &Record{
			Seq: seq,
			Event: &staking.Event{
				Kind:     staking.EventKind(kind),
				Block:    types.BlockNumber(block),
				Era:      types.EraIndex(era),
				Period:   types.PeriodNumber(period),
				Account:  types.BytesToAddress(account),
				Contract: types.BytesToAddress(contract),
				Amount:   new(big.Int).SetBytes(amount),
				Detail:   detail,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read events")
	}
	return records, nil
}

// Source publishes batches of committed events.
type Source interface {
	SubscribeEvents(ch chan<- []*staking.Event) event.Subscription
}

// Index stores every batch published by src until ctx is done or the subscription fails.
func (el *EventLog) Index(ctx context.Context, src Source) error {
	ch := make(chan []*staking.Event, 64)
	sub := src.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	logger.Info("indexing events", "path", el.path, "sqlite", el.driverVersion)
	for {
		select {
		case <-ctx.Done():
			return el.drain(ch)
		case err, ok := <-sub.Err():
			if !ok {
				return el.drain(ch)
			}
			return errors.Wrap(err, "event subscription failed")
		case batch := <-ch:
			if len(batch) == 0 {
				continue
			}
			if err := el.Insert(batch); err != nil {
				return err
			}
			logger.Debug("indexed events", "count", len(batch), "block", batch[0].Block)
		}
	}
}

// drain stores the batches already delivered.
func (el *EventLog) drain(ch <-chan []*staking.Event) error {
	for {
		select {
		case batch := <-ch:
			if err := el.Insert(batch); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (r *Record) String() string {
	return fmt.Sprintf("#%d %s", r.Seq, r.Event)
}
