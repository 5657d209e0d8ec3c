package database

import (
	"database/sql"
	"fmt"

	"csl_trmnl/internal/models"
)

type AssignmentRepository interface {
	InsertBatch(assignments []*models.Assignment) error
	Recent(limit int) ([]*models.Assignment, error)
}

type assignmentRepository struct {
	db *sql.DB
}

func NewAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

// InsertBatch inserts one or more assignments in a single transaction
// Batching is preferred over individual inserts, especially on SD card storage.
func (r *assignmentRepository) InsertBatch(assignments []*models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO model_assignments (
		icao24, icao, airline, livery, package, model_kind, model_path,
		quality, phase, assigned_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, a := range assignments {
		if _, err := stmt.Exec(
			a.ICAO24, a.ICAO, a.Airline, a.Livery, a.Package,
			a.ModelKind, a.ModelPath, a.Quality, a.Phase, a.AssignedAt.UTC(),
		); err != nil {
			return fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Recent returns up to limit assignments, newest first
func (r *assignmentRepository) Recent(limit int) ([]*models.Assignment, error) {
	rows, err := r.db.Query(`SELECT
		icao24, icao, airline, livery, package, model_kind, model_path,
		quality, phase, assigned_at
	FROM model_assignments ORDER BY assigned_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.Assignment
	for rows.Next() {
		a := &models.Assignment{}
		if err := rows.Scan(
			&a.ICAO24, &a.ICAO, &a.Airline, &a.Livery, &a.Package,
			&a.ModelKind, &a.ModelPath, &a.Quality, &a.Phase, &a.AssignedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}
	return out, nil
}
