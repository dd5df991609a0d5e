package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestOpen_AppliesMigrationsAndRollback(t *testing.T) {
	d, err := Open("file:dbmigrations?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	v, err := Version(d)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if v != 1 {
		t.Fatalf("version=%d want 1", v)
	}
	if _, err := d.Exec(`SELECT COUNT(*) FROM flight_plans`); err != nil {
		t.Fatalf("flight_plans missing: %v", err)
	}

	if err := RollbackLast(d); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if _, err := d.Exec(`SELECT COUNT(*) FROM flight_plans`); err == nil {
		t.Fatalf("expected flight_plans to be dropped")
	}
	if v, _ := Version(d); v != 0 {
		t.Fatalf("version after rollback=%d want 0", v)
	}
	// Nothing left to roll back.
	if err := RollbackLast(d); err != nil {
		t.Fatalf("second rollback: %v", err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	d, err := Open("file:dbwithtx?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	ctx := context.Background()

	boom := errors.New("boom")
	err = WithTx(ctx, d, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO organizations(name) VALUES('acme')`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
	var n int
	if err := d.QueryRow(`SELECT COUNT(*) FROM organizations`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected rollback, found %d rows", n)
	}

	if err := WithTx(ctx, d, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO organizations(name) VALUES('acme')`)
		return err
	}); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := d.QueryRow(`SELECT COUNT(*) FROM organizations`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("expected 1 row after commit, got %d (err=%v)", n, err)
	}
}
