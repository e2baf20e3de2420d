package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Jujulu67/djlarian-react-sub002/internal/action"
)

// BatchRecord is one row of the batch audit log.
type BatchRecord struct {
	ID      string
	Seq     int64
	Summary action.Summary
	Outcome action.BatchOutcome
}

// Record is one entry of an incoming batch. A record with Rejected set
// could not be decoded; it is reported as that failure and never applied.
type Record struct {
	Action   action.Action
	Rejected *action.ActionResult
}

// ApplyBatch applies every action of req independently and records the
// outcome under req.BatchID, all in one transaction. Partial success is a
// normal outcome, not an error.
//
// If the batch id was applied before, the recorded outcome is returned with
// replayed=true and nothing is applied again.
func (s *Store) ApplyBatch(ctx context.Context, req action.BatchRequest) (action.BatchOutcome, bool, error) {
	records := make([]Record, len(req.Actions))
	for i, a := range req.Actions {
		records[i] = Record{Action: a}
	}
	return s.ApplyRecords(ctx, req.BatchID, records)
}

// ApplyRecords is ApplyBatch over records that may include rejected
// entries. Results keep the order of records.
func (s *Store) ApplyRecords(ctx context.Context, batchID string, records []Record) (outcome action.BatchOutcome, replayed bool, err error) {
	if batchID == "" {
		return action.BatchOutcome{}, false, fmt.Errorf("apply batch: %w: batch id required", ErrInvalid)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return action.BatchOutcome{}, false, fmt.Errorf("apply batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rec, err := getBatch(ctx, tx, batchID)
	switch {
	case err == nil:
		if err := tx.Commit(); err != nil {
			return action.BatchOutcome{}, false, fmt.Errorf("apply batch: %w", err)
		}
		return rec.Outcome, true, nil
	case !errors.Is(err, ErrNotFound):
		return action.BatchOutcome{}, false, err
	}

	results := make([]action.ActionResult, 0, len(records))
	for _, rec := range records {
		if rec.Rejected != nil {
			results = append(results, *rec.Rejected)
			continue
		}
		a := rec.Action
		if uerr := applyUnit(ctx, tx, a); uerr != nil {
			results = append(results, action.ResultFor(a, false, uerr.Error()))
			continue
		}
		results = append(results, action.ResultFor(a, true, ""))
	}
	outcome = action.BatchOutcome{Results: results, Summary: action.Summarize(results)}

	if err = insertBatch(ctx, tx, batchID, outcome); err != nil {
		return action.BatchOutcome{}, false, err
	}
	if err = tx.Commit(); err != nil {
		return action.BatchOutcome{}, false, fmt.Errorf("apply batch: %w", err)
	}
	return outcome, false, nil
}

// GetBatch returns the audit record of a batch.
func (s *Store) GetBatch(ctx context.Context, id string) (BatchRecord, error) {
	return getBatch(ctx, s.db, id)
}

// ListBatches returns every audit record in application order.
func (s *Store) ListBatches(ctx context.Context) ([]BatchRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, total, success, errors, outcome
		FROM batches ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []BatchRecord
	for rows.Next() {
		rec, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBatch(row rowScanner) (BatchRecord, error) {
	var (
		rec     BatchRecord
		payload string
	)
	err := row.Scan(&rec.ID, &rec.Seq, &rec.Summary.Total, &rec.Summary.Success, &rec.Summary.Errors, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return BatchRecord{}, ErrNotFound
	}
	if err != nil {
		return BatchRecord{}, fmt.Errorf("scan batch: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &rec.Outcome); err != nil {
		return BatchRecord{}, fmt.Errorf("decode batch %s outcome: %w", rec.ID, err)
	}
	return rec, nil
}

func getBatch(ctx context.Context, q querier, id string) (BatchRecord, error) {
	return scanBatch(q.QueryRowContext(ctx, `
		SELECT id, seq, total, success, errors, outcome
		FROM batches WHERE id = ?
	`, id))
}

func insertBatch(ctx context.Context, q querier, id string, outcome action.BatchOutcome) error {
	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("encode batch outcome: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO batches (id, seq, total, success, errors, outcome)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM batches), ?, ?, ?, ?)
	`, id, outcome.Summary.Total, outcome.Summary.Success, outcome.Summary.Errors, string(payload))
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}
