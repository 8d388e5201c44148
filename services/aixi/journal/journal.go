// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package journal persists agent runs and their per-cycle progress in an
// embedded BadgerDB so runs can be inspected after the fact.
//
// Key layout:
//
//	run/<id>/meta           RunMeta as JSON
//	run/<id>/cycle/<index>  agent.Cycle as JSON, index zero-padded
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/marvin/pkg/telemetry"
	"github.com/AleutianAI/marvin/services/aixi/agent"
	"github.com/AleutianAI/marvin/services/aixi/types"
)

const journalTracerName = "marvin.journal"

// Sentinel errors for the journal package.
var (
	ErrNilContext    = errors.New("context must not be nil")
	ErrJournalClosed = errors.New("journal is closed")
	ErrRunNotFound   = errors.New("run not found")
)

// RunMeta describes one agent run.
type RunMeta struct {
	ID               string        `json:"id"`
	Seed             uint64        `json:"seed"`
	Strategy         string        `json:"strategy"`
	ContextTreeDepth int           `json:"context_tree_depth"`
	Environment      string        `json:"environment"`
	StartedAt        time.Time     `json:"started_at"`
	FinishedAt       time.Time     `json:"finished_at,omitempty"`
	Cycles           int           `json:"cycles"`
	AverageReward    types.Reward  `json:"average_reward"`
	Elapsed          time.Duration `json:"elapsed"`
}

// Journal stores runs.
//
// Thread Safety: Safe for concurrent use. Different runs may be recorded
// from different goroutines.
type Journal struct {
	db     *badger.DB
	logger *slog.Logger
	closed atomic.Bool

	writes       metric.Int64Counter
	bytesWritten metric.Int64Counter
}

// Open opens a journal.
//
// Inputs:
//   - cfg: Storage configuration. Path is required unless InMemory is true.
//   - logger: Logger for journal events. Nil means slog.Default().
//
// Outputs:
//   - *Journal: The journal. Call Close() when done.
//   - error: Non-nil if the database cannot be opened.
func Open(cfg Config, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	meter := otel.Meter(journalTracerName)
	writes, err := meter.Int64Counter("marvin.journal.writes",
		metric.WithDescription("Journal entries written, by operation and outcome"))
	if err != nil {
		return nil, fmt.Errorf("create writes counter: %w", err)
	}
	bytesWritten, err := meter.Int64Counter("marvin.journal.bytes_written",
		metric.WithDescription("Bytes of encoded journal entries written"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("create bytes counter: %w", err)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	return &Journal{db: db, logger: logger, writes: writes, bytesWritten: bytesWritten}, nil
}

// Close closes the underlying database. Safe to call more than once.
func (j *Journal) Close() error {
	if j.closed.Swap(true) {
		return nil
	}
	return j.db.Close()
}

func runPrefix(id string) string { return "run/" + id + "/" }

func metaKey(id string) []byte { return []byte(runPrefix(id) + "meta") }

func cyclePrefix(id string) []byte { return []byte(runPrefix(id) + "cycle/") }

func cycleKey(id string, index int) []byte {
	return []byte(fmt.Sprintf("%scycle/%08d", runPrefix(id), index))
}

func (j *Journal) check(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if j.closed.Load() {
		return ErrJournalClosed
	}
	return nil
}

// StartRun registers a new run and returns a recorder for its cycles.
//
// Inputs:
//   - ctx: Context for cancellation and tracing.
//   - meta: Run description. ID and StartedAt are filled in if empty.
//
// Outputs:
//   - *Run: Recorder implementing agent.Observer.
//   - error: Non-nil if the journal is closed or the write fails.
func (j *Journal) StartRun(ctx context.Context, meta RunMeta) (*Run, error) {
	if err := j.check(ctx); err != nil {
		return nil, err
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.StartedAt.IsZero() {
		meta.StartedAt = time.Now().UTC()
	}

	if err := j.putMeta(ctx, meta); err != nil {
		return nil, err
	}
	j.logger.Info("journal run started",
		slog.String("run_id", meta.ID),
		slog.Uint64("seed", meta.Seed),
		slog.String("strategy", meta.Strategy),
	)
	return &Run{journal: j, meta: meta}, nil
}

func (j *Journal) putMeta(ctx context.Context, meta RunMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode run meta: %w", err)
	}
	return j.write(ctx, "journal.PutMeta", meta.ID, metaKey(meta.ID), data)
}

func (j *Journal) write(ctx context.Context, op, runID string, key, value []byte) error {
	_, span := otel.Tracer(journalTracerName).Start(ctx, op,
		trace.WithAttributes(
			attribute.String("run_id", runID),
			attribute.Int("entry_bytes", len(value)),
		),
	)
	defer span.End()

	err := j.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		j.writes.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op), attribute.String("status", "error")))
		return fmt.Errorf("write %s: %w", key, err)
	}
	j.writes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op), attribute.String("status", "ok")))
	j.bytesWritten.Add(ctx, int64(len(value)))
	return nil
}

// Runs lists every run, oldest first.
func (j *Journal) Runs(ctx context.Context) ([]RunMeta, error) {
	if err := j.check(ctx); err != nil {
		return nil, err
	}

	var runs []RunMeta
	prefix := []byte("run/")
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			if !strings.HasSuffix(string(item.Key()), "/meta") {
				continue
			}
			var meta RunMeta
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", item.Key(), err)
			}
			runs = append(runs, meta)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(runs, func(a, b int) bool {
		return runs[a].StartedAt.Before(runs[b].StartedAt)
	})
	return runs, nil
}

// Run returns the metadata of one run.
func (j *Journal) Run(ctx context.Context, id string) (RunMeta, error) {
	if err := j.check(ctx); err != nil {
		return RunMeta{}, err
	}

	var meta RunMeta
	err := j.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return RunMeta{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return RunMeta{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return meta, nil
}

// Cycles returns the recorded cycles of a run in cycle order.
func (j *Journal) Cycles(ctx context.Context, id string) ([]agent.Cycle, error) {
	if _, err := j.Run(ctx, id); err != nil {
		return nil, err
	}

	var cycles []agent.Cycle
	prefix := cyclePrefix(id)
	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var c agent.Cycle
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			cycles = append(cycles, c)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cycles, nil
}

// Run records the cycles of one agent run.
//
// Thread Safety: Safe for concurrent use, though cycles normally arrive
// from a single agent goroutine.
type Run struct {
	journal *Journal
	meta    RunMeta
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.meta.ID }

// ObserveCycle implements agent.Observer by persisting c.
func (r *Run) ObserveCycle(ctx context.Context, c agent.Cycle) error {
	if err := r.journal.check(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cycle: %w", err)
	}
	return r.journal.write(ctx, "journal.RecordCycle", r.meta.ID, cycleKey(r.meta.ID, c.Index), data)
}

// Finish stores the run summary.
func (r *Run) Finish(ctx context.Context, summary agent.Summary) error {
	if err := r.journal.check(ctx); err != nil {
		return err
	}
	r.meta.FinishedAt = time.Now().UTC()
	r.meta.Cycles = summary.Cycles
	r.meta.AverageReward = summary.AverageReward
	r.meta.Elapsed = summary.Elapsed
	if err := r.journal.putMeta(ctx, r.meta); err != nil {
		return err
	}
	r.journal.logger.Info("journal run finished",
		slog.String("run_id", r.meta.ID),
		slog.Int("cycles", summary.Cycles),
		slog.Float64("average_reward", float64(summary.AverageReward)),
	)
	return nil
}

var _ agent.Observer = (*Run)(nil)
