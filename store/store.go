// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package store keeps a history of session reports in a SQLite database.
//
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"time"

	"github.com/db47h/evsim"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// Store is a session history database.
//
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path. The database runs in WAL mode
// so that the history can be read while sessions are being saved.
//
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "connect to database")
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "exec %q", pragma)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
//
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Session is a session summary.
//
type Session struct {
	ID        string        `json:"id"`
	Scenario  string        `json:"scenario,omitempty"`
	Device    string        `json:"device"`
	Verdict   evsim.Verdict `json:"verdict"`
	EndTime   evsim.Time    `json:"end_time"`
	Failures  int           `json:"failures"`
	Warnings  int           `json:"warnings"`
	CreatedAt time.Time     `json:"created_at"`
}

// SaveReport saves a report and its findings. scenario is the name of the
// scenario that produced it, if any. Saving a session id twice is a no-op.
//
func (s *Store) SaveReport(ctx context.Context, scenario string, r *evsim.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "save report")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, scenario, device, verdict, end_time, failures, warnings, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		r.SessionID, scenario, r.Device, r.Verdict.String(), int64(r.EndTime),
		len(r.Failures), len(r.Warnings), s.now().UnixMilli())
	if err != nil {
		return errors.Wrap(err, "save report")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "save report")
	}
	if n == 0 {
		// already saved
		return errors.Wrap(tx.Commit(), "save report")
	}

	for i, f := range r.Findings() {
		sigs, err := json.Marshal(f.Signals)
		if err != nil {
			return errors.Wrap(err, "save report")
		}
		if f.Signals == nil {
			sigs = []byte("[]")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO findings (session_id, seq, kind, time, routine, signals, label, message)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			r.SessionID, i, f.Kind.String(), int64(f.Time), f.Routine, string(sigs), f.Label, f.Message)
		if err != nil {
			return errors.Wrapf(err, "save finding %d", i)
		}
	}
	return errors.Wrap(tx.Commit(), "save report")
}

// Sessions returns the most recent sessions first. A limit <= 0 returns all
// sessions.
//
func (s *Store) Sessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scenario, device, verdict, end_time, failures, warnings, created_at
		FROM sessions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query sessions")
	}
	defer rows.Close()

	out := []Session{}
	for rows.Next() {
		var (
			ss      Session
			verdict string
			end     int64
			created int64
		)
		if err := rows.Scan(&ss.ID, &ss.Scenario, &ss.Device, &verdict, &end, &ss.Failures, &ss.Warnings, &created); err != nil {
			return nil, errors.Wrap(err, "scan session")
		}
		if err := ss.Verdict.UnmarshalText([]byte(verdict)); err != nil {
			return nil, errors.Wrapf(err, "session %s", ss.ID)
		}
		ss.EndTime = evsim.Time(end)
		ss.CreatedAt = time.UnixMilli(created)
		out = append(out, ss)
	}
	return out, errors.Wrap(rows.Err(), "iterate sessions")
}

// Findings returns the findings of a session in chronological order.
//
func (s *Store) Findings(ctx context.Context, sessionID string) ([]evsim.Finding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, time, routine, signals, label, message
		FROM findings
		WHERE session_id = ?
		ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, errors.Wrap(err, "query findings")
	}
	defer rows.Close()

	out := []evsim.Finding{}
	for rows.Next() {
		var (
			f          evsim.Finding
			kind, sigs string
			t          int64
		)
		if err := rows.Scan(&kind, &t, &f.Routine, &sigs, &f.Label, &f.Message); err != nil {
			return nil, errors.Wrap(err, "scan finding")
		}
		if err := f.Kind.UnmarshalText([]byte(kind)); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sigs), &f.Signals); err != nil {
			return nil, errors.Wrap(err, "decode signals")
		}
		if len(f.Signals) == 0 {
			f.Signals = nil
		}
		f.Time = evsim.Time(t)
		out = append(out, f)
	}
	return out, errors.Wrap(rows.Err(), "iterate findings")
}
