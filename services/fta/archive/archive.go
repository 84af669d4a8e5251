// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

// Package archive persists finished analysis reports.
//
// Service mode keeps every completed run so clients can fetch results
// later and list recent runs. Reports are stored as JSON under their
// run ID, with a reverse-chronological index for listing:
//
//	report:<run-id>            the full report document
//	index:<inverted-ns>:<id>   a listing entry, newest first
//
// The index key embeds the generation timestamp inverted around the
// int64 maximum so an ascending key scan yields newest-first order.
// Intermediate analysis structures are never persisted, only the
// report documents.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/TalusRisk/TalusPSA/pkg/validation"
	"github.com/TalusRisk/TalusPSA/services/fta/report"
	"github.com/TalusRisk/TalusPSA/services/fta/storage/badger"
)

var (
	// ErrNotFound reports a run ID with no archived report.
	ErrNotFound = errors.New("report not found")

	// ErrBadRunID reports a run ID that is not a canonical UUID and
	// therefore cannot be an archive key.
	ErrBadRunID = errors.New("malformed run id")
)

// DefaultListLimit bounds a listing when the caller does not.
const DefaultListLimit = 100

// Entry is one row of a report listing.
type Entry struct {
	RunID       string    `json:"run_id"`
	Model       string    `json:"model,omitempty"`
	TopEvent    string    `json:"top_event"`
	GeneratedAt time.Time `json:"generated_at"`
	Products    int       `json:"products"`
}

// Config holds the archive settings.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps the archive in memory only. Used by tests.
	InMemory bool

	// Logger receives storage-layer log output.
	Logger *slog.Logger
}

// Store is the report archive over an embedded BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens the archive, creating the directory on first use.
func Open(cfg Config) (*Store, error) {
	var bcfg badger.Config
	if cfg.InMemory {
		bcfg = badger.InMemoryConfig()
	} else {
		bcfg = badger.DefaultConfig()
		bcfg.Path = cfg.Dir
	}
	bcfg.Logger = cfg.Logger

	db, err := badger.OpenDB(bcfg)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func reportKey(id string) []byte {
	return []byte("report:" + id)
}

// indexKey inverts the timestamp so ascending key order is
// newest-first.
func indexKey(at time.Time, id string) []byte {
	return []byte(fmt.Sprintf("index:%016x:%s", uint64(math.MaxInt64-at.UnixNano()), id))
}

// Put archives one report under its run ID.
//
// Description:
//
//	Writes the report document and its listing entry in a single
//	transaction. An existing report with the same run ID is
//	overwritten; run IDs are generated UUIDs, so in practice every
//	Put is a fresh key.
//
// Inputs:
//   - ctx: bounds the transaction.
//   - rep: a finished report with a generated run ID.
//
// Outputs:
//   - error: ErrBadRunID for an unusable run ID, or a storage error.
func (s *Store) Put(ctx context.Context, rep *report.Report) error {
	if err := validation.ValidateRunID(rep.RunID); err != nil {
		return fmt.Errorf("%v: %w", err, ErrBadRunID)
	}

	doc, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", rep.RunID, err)
	}
	entry, err := json.Marshal(Entry{
		RunID:       rep.RunID,
		Model:       rep.Model,
		TopEvent:    rep.TopEvent,
		GeneratedAt: rep.GeneratedAt,
		Products:    rep.Summary.Products,
	})
	if err != nil {
		return fmt.Errorf("encode entry %s: %w", rep.RunID, err)
	}

	return s.db.WithTxn(ctx, func(txn *badgerdb.Txn) error {
		if err := txn.Set(reportKey(rep.RunID), doc); err != nil {
			return err
		}
		return txn.Set(indexKey(rep.GeneratedAt, rep.RunID), entry)
	})
}

// Get fetches one archived report by run ID.
//
// Outputs:
//   - *report.Report: the archived document.
//   - error: ErrBadRunID for a malformed ID, ErrNotFound when nothing
//     is archived under it, or a storage error.
func (s *Store) Get(ctx context.Context, runID string) (*report.Report, error) {
	if err := validation.ValidateRunID(runID); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrBadRunID)
	}

	var rep report.Report
	err := s.db.WithReadTxn(ctx, func(txn *badgerdb.Txn) error {
		item, err := txn.Get(reportKey(runID))
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return fmt.Errorf("run %s: %w", runID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rep)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// List returns up to limit entries, newest first. A non-positive
// limit means DefaultListLimit.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	entries := make([]Entry, 0, min(limit, 16))
	err := s.db.WithReadTxn(ctx, func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = []byte("index:")
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid() && len(entries) < limit; it.Next() {
			var entry Entry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("decode entry %s: %w", it.Item().Key(), err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
