package tasks

import (
	"context"
	"path"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csl_trmnl/internal/csl"
	"csl_trmnl/internal/matcher"
)

func writePackage(t *testing.T, fs afero.Fs, dir, content string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fs, path.Join(dir, csl.DeclarationFile), []byte(content), 0o644))
}

func TestRescanTask_Run(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/Doc8643.txt", []byte("AIRBUS\tA-320\tA320\tL2J\tM\r\nBOEING\t737-800\tB738\tL2J\tM\r\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/data/related.txt", []byte("A319 A320 A321\n"), 0o644))
	writePackage(t, fs, "/csl/base", "EXPORT_NAME Base\r\nOBJ8_AIRCRAFT a320\r\nICAO A320\r\n")

	loader := csl.NewLoader(csl.Options{FS: fs, Logger: testLogger()})
	cat, err := loader.Load(csl.Sources{
		PackageRoots:      []string{"/csl"},
		RelatedFile:       "/data/related.txt",
		AircraftCodesFile: "/data/Doc8643.txt",
	})
	require.NoError(t, err)

	build := func(c *csl.Catalog) *matcher.Cache {
		return matcher.NewCache(matcher.New(c, matcher.Options{Logger: testLogger()}), time.Minute, nil)
	}
	live := matcher.NewLive(build(cat))
	task := NewRescanTask(loader, live, []string{"/csl"}, time.Minute, build, testLogger())

	assert.Equal(t, "csl_rescan", task.Name())
	assert.Equal(t, time.Minute, task.Interval())

	q := matcher.Query{ICAO: "B738", NoDefault: true}
	_, ok := live.Match(q)
	require.False(t, ok)

	// Nothing new: the catalog stays in place.
	require.NoError(t, task.Run(context.Background()))
	assert.Same(t, cat, live.Catalog())

	writePackage(t, fs, "/csl/boeing", "EXPORT_NAME Boeing\r\nOBJ8_AIRCRAFT b738\r\nICAO B738\r\n")
	require.NoError(t, task.Run(context.Background()))

	assert.Equal(t, 2, live.Catalog().Len())
	res, ok := live.Match(q)
	require.True(t, ok)
	assert.Equal(t, "Boeing", res.Package.Name)
	assert.Equal(t, 1, cat.Len(), "the old catalog is left alone")
}

func TestRescanTask_RunCancelled(t *testing.T) {
	loader := csl.NewLoader(csl.Options{FS: afero.NewMemMapFs(), Logger: testLogger()})
	live := matcher.NewLive(matcher.NewCache(matcher.New(csl.NewCatalog(nil, nil), matcher.Options{}), time.Minute, nil))
	task := NewRescanTask(loader, live, []string{"/csl"}, time.Minute, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, task.Run(ctx), context.Canceled)
}
