package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// Tx wraps the single transaction a sync run executes in. Metadata fetches
// run concurrently, but SQLite holds one connection for the whole
// transaction, so every statement is serialized through the Tx mutex:
// callers may invoke Tx methods from multiple goroutines, statements never
// interleave on the wire.
type Tx struct {
	mu sync.Mutex
	tx *sql.Tx
}

// Begin starts the transaction for a sync run.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{tx: tx}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. Calling it after a successful Commit is
// a no-op error that callers may ignore (the usual defer pattern).
func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx.Rollback()
}

// UpsertPackage inserts a package row, or refreshes last_publish_date and
// updated_at if the row already exists. creation_date is written once on
// insert and never modified afterwards.
func (t *Tx) UpsertPackage(name string, creationDate, lastPublishDate time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	query := `
		INSERT INTO npm_package (package_name, creation_date, last_publish_date, is_active, updated_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(package_name) DO UPDATE SET
			last_publish_date = excluded.last_publish_date,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC()
	_, err := t.tx.Exec(query,
		name,
		creationDate.UTC().Format(time.RFC3339),
		lastPublishDate.UTC().Format(time.RFC3339),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return wrapErr(fmt.Errorf("failed to upsert package %s: %w", name, err))
	}

	return nil
}

// EnsurePackage inserts a placeholder row for a whitelisted package that was
// not returned by any search query. Existing rows are left untouched.
func (t *Tx) EnsurePackage(name string, now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	query := `
		INSERT OR IGNORE INTO npm_package (package_name, creation_date, last_publish_date, is_active, updated_at)
		VALUES (?, ?, ?, 1, ?)
	`

	ts := now.UTC().Format(time.RFC3339)
	_, err := t.tx.Exec(query, name, ts, ts, ts)
	if err != nil {
		return wrapErr(fmt.Errorf("failed to ensure package %s: %w", name, err))
	}

	return nil
}

// UpsertCategory creates a category by name, or bumps updated_at if it
// already exists. Categories are never deleted.
func (t *Tx) UpsertCategory(name string, now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	query := `
		INSERT INTO category (name, updated_at)
		VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET updated_at = excluded.updated_at
	`

	_, err := t.tx.Exec(query, name, now.UTC().Format(time.RFC3339))
	if err != nil {
		return wrapErr(fmt.Errorf("failed to upsert category %s: %w", name, err))
	}

	return nil
}

// CategoryIDs returns the name -> id mapping for every category row.
func (t *Tx) CategoryIDs() (map[string]int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.tx.Query(`SELECT id, name FROM category`)
	if err != nil {
		return nil, wrapErr(fmt.Errorf("failed to list categories: %w", err))
	}
	defer rows.Close()

	ids := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		ids[name] = id
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return ids, nil
}

// ReplacePackageCategories overwrites the association set for one package:
// all existing rows are deleted, then exactly the given category ids are
// inserted. Absence from the new set removes an association, it is not a
// merge.
func (t *Tx) ReplacePackageCategories(pkg string, categoryIDs []int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := t.tx.Exec(`DELETE FROM package_category WHERE package_id = ?`, pkg); err != nil {
		return wrapErr(fmt.Errorf("failed to clear categories for %s: %w", pkg, err))
	}

	for _, id := range categoryIDs {
		_, err := t.tx.Exec(
			`INSERT INTO package_category (package_id, category_id) VALUES (?, ?)`,
			pkg, id,
		)
		if err != nil {
			return fmt.Errorf("failed to associate %s with category %d: %w", pkg, id, err)
		}
	}

	return nil
}

// PackageNames returns the name of every package row, active or not.
func (t *Tx) PackageNames() ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows, err := t.tx.Query(`SELECT package_name FROM npm_package ORDER BY package_name`)
	if err != nil {
		return nil, wrapErr(fmt.Errorf("failed to list package names: %w", err))
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan package name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package names: %w", err)
	}

	return names, nil
}

// DeactivatePackages sets is_active=0 for the given names. Already-inactive
// rows stay inactive; nothing is ever reactivated here.
func (t *Tx) DeactivatePackages(names []string, now time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := now.UTC().Format(time.RFC3339)
	for _, name := range names {
		_, err := t.tx.Exec(
			`UPDATE npm_package SET is_active = 0, updated_at = ? WHERE package_name = ?`,
			ts, name,
		)
		if err != nil {
			return wrapErr(fmt.Errorf("failed to deactivate package %s: %w", name, err))
		}
	}

	return nil
}
