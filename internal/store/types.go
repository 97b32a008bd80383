package store

import "time"

// Package is one row of the npm_package table.
type Package struct {
	Name            string
	CreationDate    time.Time
	LastPublishDate time.Time
	IsActive        bool
	UpdatedAt       time.Time
}

// Category is one row of the category table. Categories are created on first
// encounter and never deleted.
type Category struct {
	ID        int64
	Name      string
	UpdatedAt time.Time
}
