// Package dberr classifies storage failures so callers can tell "still in
// use" apart from "not found" or a plain I/O error.
//
// # Usage
//
//	if err := repo.Delete(ctx, id); errors.Is(err, dberr.ErrInUse) {
//	    // explain that the row is still referenced
//	}
package dberr

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a row to be changed no longer exists.
	// Plain lookups of a missing row return a nil entity instead.
	ErrNotFound = errors.New("record not found")

	// ErrIntegrity is the parent of every constraint failure reported by storage.
	ErrIntegrity = errors.New("integrity constraint violated")

	// ErrInUse means a delete was blocked by a restricting foreign key.
	ErrInUse = fmt.Errorf("%w: still referenced", ErrIntegrity)

	// ErrMissingReference means a write pointed at a row that does not exist.
	ErrMissingReference = fmt.Errorf("%w: referenced row does not exist", ErrIntegrity)

	// ErrDuplicate means a uniqueness constraint rejected the write.
	ErrDuplicate = fmt.Errorf("%w: duplicate", ErrIntegrity)

	// ErrConstraint covers NOT NULL and CHECK failures.
	ErrConstraint = fmt.Errorf("%w: constraint failed", ErrIntegrity)
)

type kind int

const (
	kindOther kind = iota
	kindForeignKey
	kindUnique
	kindConstraint
)

func classify(err error) kind {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintForeignKey:
			return kindForeignKey
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return kindUnique
		}
		if sqliteErr.Code == sqlite3.ErrConstraint {
			return kindConstraint
		}
		return kindOther
	}

	switch {
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return kindForeignKey
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return kindUnique
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return kindConstraint
	}
	return kindOther
}

// Write wraps an insert or update failure with its category.
func Write(op string, err error) error {
	if err == nil {
		return nil
	}
	switch classify(err) {
	case kindForeignKey:
		return fmt.Errorf("%s: %w: %w", op, ErrMissingReference, err)
	case kindUnique:
		return fmt.Errorf("%s: %w: %w", op, ErrDuplicate, err)
	case kindConstraint:
		return fmt.Errorf("%s: %w: %w", op, ErrConstraint, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Delete wraps a delete failure; a foreign key failure here means the row
// is still referenced by a restricting child.
func Delete(op string, err error) error {
	if err == nil {
		return nil
	}
	if classify(err) == kindForeignKey {
		return fmt.Errorf("%s: %w: %w", op, ErrInUse, err)
	}
	return Write(op, err)
}

// NotFound reports ErrNotFound for op.
func NotFound(op string) error {
	return fmt.Errorf("%s: %w", op, ErrNotFound)
}
