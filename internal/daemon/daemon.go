package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"csl_trmnl/internal/api"
	"csl_trmnl/internal/config"
	"csl_trmnl/internal/csl"
	"csl_trmnl/internal/database"
	"csl_trmnl/internal/dump1090"
	"csl_trmnl/internal/matcher"
	"csl_trmnl/internal/metrics"
	"csl_trmnl/internal/models"
	"csl_trmnl/internal/scheduler"
	"csl_trmnl/internal/tasks"
)

const (
	shutdownTimeout   = 5 * time.Second
	registryBatchSize = 5000 // records per batch when importing the registry CSV
	frameBuffer       = 1000
)

// Daemon serves the model catalog over HTTP and, when a Beast feed is
// configured, assigns models to the aircraft it hears.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	loader   *csl.Loader
	live     *matcher.Live
	database *database.DB
	server   *api.Server
	beast    *dump1090.BeastClient
}

// NewLoader creates a catalog loader reading the OS filesystem.
func NewLoader(cfg *config.Config, logger *slog.Logger, met *metrics.Metrics) *csl.Loader {
	simVersion := cfg.CSL.SimVersion
	return csl.NewLoader(csl.Options{
		SimVersion: func() int { return simVersion },
		SystemPath: cfg.CSL.SystemPath,
		Logger:     logger,
		Metrics:    met,
	})
}

// Sources returns the configured catalog inputs.
func Sources(cfg *config.Config) csl.Sources {
	return csl.Sources{
		PackageRoots:      cfg.CSL.PackageRoots,
		RelatedFile:       cfg.CSL.RelatedFile,
		AircraftCodesFile: cfg.CSL.Doc8643File,
	}
}

// LoadCatalog loads the configured packages. Unreadable reference documents
// are logged; the catalog is usable without them.
func LoadCatalog(cfg *config.Config, logger *slog.Logger, met *metrics.Metrics) (*csl.Loader, *csl.Catalog) {
	loader := NewLoader(cfg, logger, met)
	start := time.Now()
	cat, err := loader.Load(Sources(cfg))
	if err != nil {
		logger.Warn("Reference documents missing, matching will be limited", "error", err)
	}
	logger.Info("Loaded model catalog",
		"packages", cat.Len(),
		"planes", cat.PlaneCount(),
		"elapsed", time.Since(start),
	)
	return loader, cat
}

// NewMatcher wraps cat in a cached matcher configured from cfg.
func NewMatcher(cfg *config.Config, cat *csl.Catalog, logger *slog.Logger, met *metrics.Metrics) *matcher.Cache {
	m := matcher.New(cat, matcher.Options{
		DefaultICAO: cfg.CSL.DefaultICAO,
		Debug:       cfg.Debug.ModelMatching,
		Logger:      logger,
		Metrics:     met,
	})
	return matcher.NewCache(m, cfg.MatchCacheTTL, met)
}

// New loads the catalog and opens the database.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	met := metrics.New(reg)

	loader, cat := LoadCatalog(cfg, logger, met)
	live := matcher.NewLive(NewMatcher(cfg, cat, logger, met))

	db, err := database.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := loadRegistry(db.Aircraft(), cfg.RegistryCSV, logger); err != nil {
		db.Close()
		return nil, err
	}

	server := api.NewServer(api.Options{
		Addr:        cfg.HTTPAddr,
		Matcher:     live,
		Assignments: db.Assignments(),
		Gatherer:    reg,
		MatchRate:   cfg.MatchRateLimit,
		MatchBurst:  cfg.MatchBurst,
		Logger:      logger,
	})

	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		metrics:  met,
		loader:   loader,
		live:     live,
		database: db,
		server:   server,
	}
	if cfg.BeastAddr != "" {
		d.beast = dump1090.NewBeastClient(cfg.BeastAddr, logger)
	}
	return d, nil
}

// loadRegistry imports the aircraft registry CSV files when the table is empty.
func loadRegistry(repo database.AircraftRepository, paths []string, logger *slog.Logger) error {
	if len(paths) == 0 {
		return nil
	}
	populated, err := repo.IsTablePopulated()
	if err != nil {
		return fmt.Errorf("failed to check aircraft table: %w", err)
	}
	if populated {
		logger.Info("Aircraft table is already populated")
		return nil
	}

	logger.Info("Aircraft table is empty, loading from CSV files", "csv_paths", paths)
	if err := repo.LoadFromMultipleCSV(paths, registryBatchSize); err != nil {
		return fmt.Errorf("failed to load aircraft from CSV: %w", err)
	}
	logger.Info("Successfully loaded aircraft database from CSV")
	return nil
}

// Run serves until ctx is cancelled or a component fails.
func (d *Daemon) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	sched := scheduler.New(ctx, d.logger)
	sched.AddTask(tasks.NewRescanTask(d.loader, d.live, d.cfg.CSL.PackageRoots, d.cfg.CSL.RescanInterval,
		func(cat *csl.Catalog) *matcher.Cache { return NewMatcher(d.cfg, cat, d.logger, d.metrics) },
		d.logger,
	))
	sched.Start()
	defer sched.Stop()

	g.Go(d.server.ListenAndServe)
	g.Go(func() error {
		<-ctx.Done()
		return d.server.Shutdown(shutdownTimeout)
	})

	if d.beast != nil {
		frames := make(chan *models.BeastFrame, frameBuffer)
		collector := tasks.NewAssignmentCollector(
			d.database.Aircraft(),
			d.database.Assignments(),
			d.live,
			frames,
			tasks.CollectorConfig{
				BatchSize:     d.cfg.BatchSize,
				FlushInterval: time.Duration(d.cfg.BatchTimeout) * time.Second,
				Metrics:       d.metrics,
				Logger:        d.logger,
			},
		)

		g.Go(func() error {
			err := d.beast.StreamFrames(ctx, frames)
			close(frames)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("beast stream stopped: %w", err)
		})
		g.Go(func() error {
			if err := collector.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		d.logger.Info("Assigning models to live traffic", "beast_addr", d.cfg.BeastAddr)
	}

	d.logger.Info("Daemon started")
	return g.Wait()
}

// Close releases the Beast connection and the database.
func (d *Daemon) Close() error {
	var errs []error
	if d.beast != nil {
		errs = append(errs, d.beast.Close())
	}
	errs = append(errs, d.database.Close())
	d.logger.Info("Daemon stopped")
	return errors.Join(errs...)
}
