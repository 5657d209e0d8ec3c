package tasks

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"

	"csl_trmnl/internal/database"
	"csl_trmnl/internal/matcher"
	"csl_trmnl/internal/metrics"
	"csl_trmnl/internal/models"
)

// Matcher answers model queries. *matcher.Live and *matcher.Cache satisfy it.
type Matcher interface {
	Match(q matcher.Query) (matcher.Result, bool)
}

// AssignmentCollector matches every newly seen aircraft against the catalog
// and commits the chosen models to the database in batches.
type AssignmentCollector struct {
	registry      database.AircraftRepository
	repo          database.AssignmentRepository
	matcher       Matcher
	frames        <-chan *models.BeastFrame
	seen          *cache.Cache  // addresses assigned recently
	batchSize     int           // maximum number of assignments in a batch before committing to database
	flushInterval time.Duration // time to flush batch even if not full
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// CollectorConfig holds the tunables of an AssignmentCollector
type CollectorConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	// ReassignAfter is how long an address stays assigned before it is
	// matched again.
	ReassignAfter time.Duration
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// NewAssignmentCollector creates a collector. Zero config values default to
// batches of 100, a 1 second flush interval and a 10 minute reassign window.
func NewAssignmentCollector(
	registry database.AircraftRepository,
	repo database.AssignmentRepository,
	m Matcher,
	frames <-chan *models.BeastFrame,
	cfg CollectorConfig,
) *AssignmentCollector {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 1 * time.Second
	}
	if cfg.ReassignAfter <= 0 {
		cfg.ReassignAfter = 10 * time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AssignmentCollector{
		registry:      registry,
		repo:          repo,
		matcher:       m,
		frames:        frames,
		seen:          cache.New(cfg.ReassignAfter, 2*cfg.ReassignAfter),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}
}

// Start begins collecting frames and writing assignments in batches.
// It blocks until the context is cancelled or the frame channel is closed.
// Batches are flushed when they reach batchSize or every flushInterval.
func (c *AssignmentCollector) Start(ctx context.Context) error {
	batch := make([]*models.Assignment, 0, c.batchSize)

	flushBatch := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.repo.InsertBatch(batch); err != nil {
			c.logger.Error("Error inserting batch of assignments", "batch_size", len(batch), "error", err)
		} else {
			c.metrics.Assigned(len(batch))
			c.logger.Info("Inserted batch of model assignments", "batch_size", len(batch))
		}
		batch = batch[:0] // Reset slice but keep capacity
	}

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushBatch()
			return ctx.Err()

		case <-ticker.C:
			flushBatch()

		case frame, ok := <-c.frames:
			if !ok {
				flushBatch()
				return nil
			}
			if frame == nil {
				continue
			}

			a := c.assign(frame)
			if a == nil {
				continue
			}
			batch = append(batch, a)

			if len(batch) >= c.batchSize {
				flushBatch()
			}
		}
	}
}

// assign returns the assignment for a frame's aircraft, or nil when the
// frame has no address, the address was handled recently, or nothing matched.
func (c *AssignmentCollector) assign(frame *models.BeastFrame) *models.Assignment {
	addr, ok := frame.Address()
	if !ok {
		return nil
	}
	if _, found := c.seen.Get(addr); found {
		return nil
	}
	c.seen.SetDefault(addr, struct{}{})

	ac, err := c.registry.Lookup(addr)
	if err != nil {
		if errors.Is(err, database.ErrAircraftNotFound) {
			c.metrics.RegistryMiss()
			c.logger.Debug("Aircraft not in registry", "icao24", addr)
		} else {
			c.logger.Error("Registry lookup failed", "icao24", addr, "error", err)
		}
		return nil
	}
	if ac.TypeCode == "" {
		c.logger.Debug("Aircraft has no type code", "icao24", addr)
		return nil
	}

	q := matcher.Query{ICAO: ac.TypeCode, Airline: ac.OperatorICAO, Livery: ac.Registration}
	res, ok := c.matcher.Match(q)
	if !ok {
		c.logger.Info("No model for aircraft", "icao24", addr, "icao", q.ICAO, "airline", q.Airline)
		return nil
	}

	c.logger.Debug("Assigned model",
		"icao24", addr,
		"icao", q.ICAO,
		"airline", q.Airline,
		"livery", q.Livery,
		"package", res.Package.Name,
		"phase", res.Phase.String(),
		"quality", res.Quality,
	)
	return &models.Assignment{
		ICAO24:     addr,
		ICAO:       q.ICAO,
		Airline:    q.Airline,
		Livery:     q.Livery,
		Package:    res.Package.Name,
		ModelKind:  res.Plane.Model.Kind().String(),
		ModelPath:  res.Plane.Model.AssetPath(),
		Quality:    res.Quality,
		Phase:      res.Phase.String(),
		AssignedAt: frame.ReceivedAt,
	}
}
