package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"csl_trmnl/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "csl_trmnl.db"))
	require.NoError(t, err)
	require.NotNil(t, db)

	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	return db
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestNew(t *testing.T) {
	db := setupTestDB(t)
	assert.NotNil(t, db)
}

func TestAircraftRepository_InsertAndLookup(t *testing.T) {
	repo := setupTestDB(t).Aircraft()

	populated, err := repo.IsTablePopulated()
	require.NoError(t, err)
	assert.False(t, populated)

	err = repo.InsertBatch([]*models.Aircraft{
		{ICAO24: "4840D6", Registration: "PH-BXA", TypeCode: "B738", OperatorICAO: "KLM", ManufacturerName: "Boeing", Model: "737-8K2"},
		{ICAO24: "3c661f", Registration: "D-AIPA", TypeCode: "A320", OperatorICAO: "DLH"},
	})
	require.NoError(t, err)

	populated, err = repo.IsTablePopulated()
	require.NoError(t, err)
	assert.True(t, populated)

	tests := []struct {
		name    string
		icao24  string
		want    *models.Aircraft
		wantErr error
	}{
		{
			name:   "stored upper case, queried lower case",
			icao24: "4840d6",
			want:   &models.Aircraft{ICAO24: "4840d6", Registration: "PH-BXA", TypeCode: "B738", OperatorICAO: "KLM", ManufacturerName: "Boeing", Model: "737-8K2"},
		},
		{
			name:   "queried upper case",
			icao24: "3C661F",
			want:   &models.Aircraft{ICAO24: "3c661f", Registration: "D-AIPA", TypeCode: "A320", OperatorICAO: "DLH"},
		},
		{
			name:    "unknown address",
			icao24:  "abcdef",
			wantErr: ErrAircraftNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Lookup(tt.icao24)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAircraftRepository_LoadFromMultipleCSV(t *testing.T) {
	repo := setupTestDB(t).Aircraft()

	header := "'icao24','timestamp','registration','typecode','operatorIcao','manufacturerName','model'\n"
	part1 := writeCSV(t, "part1.csv", header+
		"'4840d6','','PH-BXA','B738','KLM','Boeing','737-8K2'\n"+
		"'','','NOADDR','A320','','',''\n"+
		"'short','row'\n")
	part2 := writeCSV(t, "part2.csv", header+
		"'3c661f','','D-AIPA','A320','DLH','Airbus','A320-211'\n"+
		"'a1b2c3','','N12345','C172','','Cessna','172S'\n")

	require.NoError(t, repo.LoadFromMultipleCSV([]string{part1, part2}, 2))

	ac, err := repo.Lookup("3c661f")
	require.NoError(t, err)
	assert.Equal(t, "D-AIPA", ac.Registration)
	assert.Equal(t, "A320", ac.TypeCode)
	assert.Equal(t, "DLH", ac.OperatorICAO)

	ac, err = repo.Lookup("a1b2c3")
	require.NoError(t, err)
	assert.Empty(t, ac.OperatorICAO)

	_, err = repo.Lookup("4840d6")
	assert.NoError(t, err)
}

func TestAircraftRepository_LoadFromMultipleCSV_MissingFile(t *testing.T) {
	repo := setupTestDB(t).Aircraft()

	err := repo.LoadFromMultipleCSV([]string{filepath.Join(t.TempDir(), "missing.csv")}, 10)
	assert.Error(t, err)
}

func TestAssignmentRepository(t *testing.T) {
	repo := setupTestDB(t).Assignments()

	// Empty batch should not error
	require.NoError(t, repo.InsertBatch(nil))

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	err := repo.InsertBatch([]*models.Assignment{
		{
			ICAO24: "3c661f", ICAO: "A320", Airline: "DLH", Livery: "D-AIPA",
			Package: "Base", ModelKind: "modern-object", ModelPath: "A320_DLH",
			Quality: 0, Phase: "exact", AssignedAt: now,
		},
		{
			ICAO24: "4840d6", ICAO: "B738", Airline: "KLM",
			Package: "Base", ModelKind: "modern-object", ModelPath: "A320_DLH",
			Quality: -1, Phase: "equipment", AssignedAt: now.Add(time.Minute),
		},
	})
	require.NoError(t, err)

	recent, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "4840d6", recent[0].ICAO24)
	assert.Equal(t, "equipment", recent[0].Phase)
	assert.Equal(t, -1, recent[0].Quality)
	assert.Empty(t, recent[0].Livery)
	assert.Equal(t, "3c661f", recent[1].ICAO24)
	assert.True(t, now.Equal(recent[1].AssignedAt))

	recent, err = repo.Recent(1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
