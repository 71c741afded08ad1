package storage

import (
	"context"
	"errors"
)

// fakeRepo is a minimal Repository implementation for tests.
type fakeRepo struct {
	closed   bool
	execs    []string
	beginErr error
	tx       *fakeTx
}

var errDuplicate = errors.New("UNIQUE constraint failed: trips.trip_id")

func (f *fakeRepo) Exec(ctx context.Context, sql string) error {
	f.execs = append(f.execs, sql)
	return nil
}

func (f *fakeRepo) Begin(ctx context.Context) (Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	if f.tx == nil {
		f.tx = &fakeTx{}
	}
	return f.tx, nil
}

func (f *fakeRepo) Close() { f.closed = true }

type fakeTx struct {
	execs      []string
	execErr    error
	rows       [][]any
	seen       map[any]bool
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string) error {
	t.execs = append(t.execs, sql)
	return t.execErr
}

// Insert enforces a primary key on the first value.
func (t *fakeTx) Insert(ctx context.Context, row []any) error {
	if t.seen == nil {
		t.seen = map[any]bool{}
	}
	if t.seen[row[0]] {
		return errDuplicate
	}
	t.seen[row[0]] = true
	t.rows = append(t.rows, row)
	return nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}
