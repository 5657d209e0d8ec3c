package daemon

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csl_trmnl/internal/config"
	"csl_trmnl/internal/csl"
	"csl_trmnl/internal/matcher"
	"csl_trmnl/internal/metrics"
	"csl_trmnl/internal/models"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	root := filepath.Join(dir, "CSL")
	writeFile(t, filepath.Join(root, "base", csl.DeclarationFile), "EXPORT_NAME Base\r\nOBJ8_AIRCRAFT a320\r\nICAO A320\r\n")
	writeFile(t, filepath.Join(dir, "Doc8643.txt"), "AIRBUS\tA-320\tA320\tL2J\tM\r\n")
	writeFile(t, filepath.Join(dir, "related.txt"), "A319 A320 A321\n")
	writeFile(t, filepath.Join(dir, "registry.csv"),
		"'icao24','timestamp','registration','typecode','operatorIcao','manufacturerName','model'\n"+
			"'3c661f','','D-AIPA','A320','DLH','Airbus','A320-211'\n")

	return &config.Config{
		CSL: config.CSLConfig{
			PackageRoots: []string{root},
			RelatedFile:  filepath.Join(dir, "related.txt"),
			Doc8643File:  filepath.Join(dir, "Doc8643.txt"),
			DefaultICAO:  "A320",
			SimVersion:   12000,
		},
		MatchCacheTTL:  time.Minute,
		HTTPAddr:       "127.0.0.1:0",
		MatchRateLimit: 10,
		MatchBurst:     20,
		DBPath:         filepath.Join(dir, "csl_trmnl.db"),
		RegistryCSV:    []string{filepath.Join(dir, "registry.csv")},
		BatchSize:      100,
		BatchTimeout:   1,
	}
}

func TestLoadCatalog_MissingReferenceDocuments(t *testing.T) {
	cfg := testConfig(t)
	cfg.CSL.Doc8643File = filepath.Join(t.TempDir(), "missing.txt")

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	_, cat := LoadCatalog(cfg, logger, metrics.New(prometheus.NewRegistry()))

	assert.Equal(t, 1, cat.Len())
	assert.Contains(t, logs.String(), "Reference documents missing")

	res, ok := NewMatcher(cfg, cat, logger, nil).Match(matcher.Query{ICAO: "A320"})
	require.True(t, ok)
	assert.Equal(t, "Base", res.Package.Name)
}

func TestDaemon_Serve(t *testing.T) {
	cfg := testConfig(t)

	d, err := New(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	// Registry was imported on start.
	ac, err := d.database.Aircraft().Lookup("3c661f")
	require.NoError(t, err)
	assert.Equal(t, "DLH", ac.OperatorICAO)

	rec := httptest.NewRecorder()
	d.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/match?icao=A321", nil))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	assert.NoError(t, d.Run(ctx))
}

func TestDaemon_AssignsLiveTraffic(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		// DF11 all-call reply from 3c661f
		frame := []byte{models.BeastEscape, models.BeastTypeModeSShort, 0, 0, 0, 0, 0, 1, 0x80, 0x5D, 0x3C, 0x66, 0x1F, 0x00, 0x00, 0x00}
		_, _ = conn.Write(frame)
		time.Sleep(2 * time.Second)
	}()

	cfg := testConfig(t)
	cfg.BeastAddr = ln.Addr().String()

	d, err := New(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, d.Close()) })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Run(ctx))

	recent, err := d.database.Assignments().Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "3c661f", recent[0].ICAO24)
	assert.Equal(t, "A320", recent[0].ICAO)
	assert.Equal(t, "DLH", recent[0].Airline)
	assert.Equal(t, "D-AIPA", recent[0].Livery)
	assert.Equal(t, "Base", recent[0].Package)
	assert.Equal(t, "modern-object", recent[0].ModelKind)
}
