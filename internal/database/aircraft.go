package database

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"csl_trmnl/internal/models"
)

// ErrAircraftNotFound is returned by Lookup for addresses not in the registry
var ErrAircraftNotFound = errors.New("aircraft not found")

type AircraftRepository interface {
	InsertBatch(aircraft []*models.Aircraft) error
	IsTablePopulated() (bool, error)
	LoadFromMultipleCSV(csvPaths []string, batchSize int) error
	Lookup(icao24 string) (*models.Aircraft, error)
}

type aircraftRepository struct {
	db *sql.DB
}

func NewAircraftRepository(db *sql.DB) AircraftRepository {
	return &aircraftRepository{db: db}
}

// InsertBatch inserts one or more aircraft records in a single transaction
func (r *aircraftRepository) InsertBatch(aircraft []*models.Aircraft) error {
	if len(aircraft) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO aircraft (
		icao24, registration, typecode, operatorIcao, manufacturerName, model
	) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ac := range aircraft {
		if _, err := stmt.Exec(
			strings.ToLower(ac.ICAO24), ac.Registration, ac.TypeCode,
			ac.OperatorICAO, ac.ManufacturerName, ac.Model,
		); err != nil {
			return fmt.Errorf("failed to insert aircraft: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *aircraftRepository) IsTablePopulated() (bool, error) {
	var ignored int
	err := r.db.QueryRow("SELECT 1 FROM aircraft LIMIT 1").Scan(&ignored)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check aircraft table: %w", err)
	}
	return true, nil
}

// Lookup returns the registry row for a 24-bit address in hex
func (r *aircraftRepository) Lookup(icao24 string) (*models.Aircraft, error) {
	ac := &models.Aircraft{}
	err := r.db.QueryRow(`SELECT
		icao24, registration, typecode, operatorIcao, manufacturerName, model
	FROM aircraft WHERE icao24 = ?`, strings.ToLower(icao24)).Scan(
		&ac.ICAO24, &ac.Registration, &ac.TypeCode,
		&ac.OperatorICAO, &ac.ManufacturerName, &ac.Model,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAircraftNotFound, icao24)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up aircraft %s: %w", icao24, err)
	}
	return ac, nil
}

// LoadFromMultipleCSV loads aircraft data from multiple CSV files into the database.
// The registry export is split into parts; every part repeats the header.
func (r *aircraftRepository) LoadFromMultipleCSV(csvPaths []string, batchSize int) error {
	var headerMap map[string]int
	var expectedFields int
	batch := make([]*models.Aircraft, 0, batchSize)

	for fileIdx, csvPath := range csvPaths {
		if err := func() error {
			file, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("failed to open CSV file %s: %w", csvPath, err)
			}
			defer file.Close()

			reader := csv.NewReader(file)
			reader.LazyQuotes = true    // Handle malformed quotes in CSV
			reader.FieldsPerRecord = -1 // Allow variable number of fields per record

			header, err := reader.Read()
			if err != nil {
				return fmt.Errorf("failed to read CSV header from %s: %w", csvPath, err)
			}

			// The first file's header describes every part
			if fileIdx == 0 {
				expectedFields = len(header)
				headerMap = make(map[string]int)
				for i, h := range header {
					headerMap[strings.Trim(strings.TrimSpace(h), "'\"")] = i
				}
			}

			for {
				record, err := reader.Read()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to read CSV record from %s: %w", csvPath, err)
				}

				if len(record) != expectedFields {
					continue
				}

				ac := &models.Aircraft{
					ICAO24:           getField(record, headerMap, "icao24"),
					Registration:     getField(record, headerMap, "registration"),
					TypeCode:         getField(record, headerMap, "typecode"),
					OperatorICAO:     getField(record, headerMap, "operatorIcao"),
					ManufacturerName: getField(record, headerMap, "manufacturerName"),
					Model:            getField(record, headerMap, "model"),
				}

				// Skip records without an address (invalid data)
				if ac.ICAO24 == "" {
					continue
				}

				batch = append(batch, ac)

				if len(batch) >= batchSize {
					if err := r.InsertBatch(batch); err != nil {
						return fmt.Errorf("failed to insert batch: %w", err)
					}
					batch = batch[:0]
				}
			}
		}(); err != nil {
			return err
		}
	}

	if len(batch) > 0 {
		if err := r.InsertBatch(batch); err != nil {
			return fmt.Errorf("failed to insert final batch: %w", err)
		}
	}

	return nil
}

// getField safely retrieves a field from a CSV record by header name
func getField(record []string, headerMap map[string]int, fieldName string) string {
	if idx, ok := headerMap[fieldName]; ok && idx < len(record) {
		return strings.Trim(strings.TrimSpace(record[idx]), "'\"")
	}
	return ""
}
