// Copyright (C) 2025 Talus Risk Analytics (engineering@talusrisk.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding attribution requirements.

package archive

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TalusRisk/TalusPSA/services/fta/report"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func makeReport(at time.Time, model string) *report.Report {
	return &report.Report{
		RunID:       uuid.NewString(),
		Model:       model,
		TopEvent:    "TOP",
		GeneratedAt: at,
		Settings:    report.Settings{OrderLimit: 20},
		Summary:     report.Summary{BasicEvents: 2, Products: 1},
		Products: []report.Product{
			{Order: 1, Literals: []string{"A"}},
		},
	}
}

func TestStore_PutGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rep := makeReport(time.Now().UTC(), "pump-train")
	require.NoError(t, store.Put(ctx, rep))

	got, err := store.Get(ctx, rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, rep, got)
}

func TestStore_GetNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RejectsBadRunID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "report:*")
	assert.ErrorIs(t, err, ErrBadRunID)
	assert.NotErrorIs(t, err, ErrNotFound)

	rep := makeReport(time.Now().UTC(), "")
	rep.RunID = "not-a-uuid"
	assert.ErrorIs(t, store.Put(ctx, rep), ErrBadRunID)
}

func TestStore_ListNewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	oldest := makeReport(base, "first")
	middle := makeReport(base.Add(time.Minute), "second")
	newest := makeReport(base.Add(2*time.Minute), "third")
	for _, rep := range []*report.Report{middle, oldest, newest} {
		require.NoError(t, store.Put(ctx, rep))
	}

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, newest.RunID, entries[0].RunID)
	assert.Equal(t, middle.RunID, entries[1].RunID)
	assert.Equal(t, oldest.RunID, entries[2].RunID)
	assert.Equal(t, "third", entries[0].Model)
	assert.Equal(t, 1, entries[0].Products)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, newest.RunID, limited[0].RunID)
	assert.Equal(t, middle.RunID, limited[1].RunID)
}

func TestStore_ListEmpty(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStore_OverwriteSameRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rep := makeReport(time.Now().UTC(), "pump-train")
	require.NoError(t, store.Put(ctx, rep))
	rep.Summary.Products = 5
	require.NoError(t, store.Put(ctx, rep))

	got, err := store.Get(ctx, rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Summary.Products)

	entries, err := store.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
