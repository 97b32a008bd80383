package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Read-side queries used by the list command and tests. Writes during a sync
// run all go through Tx.

// GetPackage retrieves a package by name.
func (s *Store) GetPackage(name string) (*Package, error) {
	query := `
		SELECT package_name, creation_date, last_publish_date, is_active, updated_at
		FROM npm_package
		WHERE package_name = ?
	`

	pkg, err := scanPackage(s.db.QueryRow(query, name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("package %s not found", name)
	}
	if err != nil {
		return nil, wrapErr(fmt.Errorf("failed to get package %s: %w", name, err))
	}

	return pkg, nil
}

// ListPackages returns all packages ordered by name.
func (s *Store) ListPackages() ([]*Package, error) {
	query := `
		SELECT package_name, creation_date, last_publish_date, is_active, updated_at
		FROM npm_package
		ORDER BY package_name
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrapErr(fmt.Errorf("failed to list packages: %w", err))
	}
	defer rows.Close()

	var packages []*Package
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package row: %w", err)
		}
		packages = append(packages, pkg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating packages: %w", err)
	}

	return packages, nil
}

// PackageCategories returns the category names associated with a package,
// ordered by name.
func (s *Store) PackageCategories(pkg string) ([]string, error) {
	query := `
		SELECT c.name
		FROM package_category pc
		JOIN category c ON c.id = pc.category_id
		WHERE pc.package_id = ?
		ORDER BY c.name
	`

	rows, err := s.db.Query(query, pkg)
	if err != nil {
		return nil, wrapErr(fmt.Errorf("failed to get categories for %s: %w", pkg, err))
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan category name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return names, nil
}

// CategoriesByPackage returns the package -> category-names mapping for the
// whole database in one query.
func (s *Store) CategoriesByPackage() (map[string][]string, error) {
	query := `
		SELECT pc.package_id, c.name
		FROM package_category pc
		JOIN category c ON c.id = pc.category_id
		ORDER BY pc.package_id, c.name
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, wrapErr(fmt.Errorf("failed to list package categories: %w", err))
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var pkg, cat string
		if err := rows.Scan(&pkg, &cat); err != nil {
			return nil, fmt.Errorf("failed to scan package category row: %w", err)
		}
		out[pkg] = append(out[pkg], cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating package categories: %w", err)
	}

	return out, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanPackage.
type scanner interface {
	Scan(dest ...any) error
}

func scanPackage(sc scanner) (*Package, error) {
	var pkg Package
	var creation, published, updated string

	if err := sc.Scan(&pkg.Name, &creation, &published, &pkg.IsActive, &updated); err != nil {
		return nil, err
	}

	var err error
	if pkg.CreationDate, err = time.Parse(time.RFC3339, creation); err != nil {
		return nil, fmt.Errorf("failed to parse creation_date for %s: %w", pkg.Name, err)
	}
	if pkg.LastPublishDate, err = time.Parse(time.RFC3339, published); err != nil {
		return nil, fmt.Errorf("failed to parse last_publish_date for %s: %w", pkg.Name, err)
	}
	if pkg.UpdatedAt, err = time.Parse(time.RFC3339, updated); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at for %s: %w", pkg.Name, err)
	}

	return &pkg, nil
}
