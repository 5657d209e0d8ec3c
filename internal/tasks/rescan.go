package tasks

import (
	"context"
	"log/slog"
	"time"

	"csl_trmnl/internal/csl"
	"csl_trmnl/internal/matcher"
)

// RescanTask picks up packages added to the package roots while running.
// It implements scheduler.Task.
type RescanTask struct {
	loader   *csl.Loader
	live     *matcher.Live
	roots    []string
	interval time.Duration
	build    func(*csl.Catalog) *matcher.Cache
	logger   *slog.Logger
}

// NewRescanTask creates the task. build wraps a new catalog in the matcher
// stack that live should serve.
func NewRescanTask(loader *csl.Loader, live *matcher.Live, roots []string, interval time.Duration, build func(*csl.Catalog) *matcher.Cache, logger *slog.Logger) *RescanTask {
	if logger == nil {
		logger = slog.Default()
	}
	return &RescanTask{
		loader:   loader,
		live:     live,
		roots:    roots,
		interval: interval,
		build:    build,
		logger:   logger,
	}
}

func (t *RescanTask) Name() string { return "csl_rescan" }

func (t *RescanTask) Interval() time.Duration { return t.interval }

// Run rescans the roots and swaps in the new catalog when it gained packages.
func (t *RescanTask) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	prev := t.live.Catalog()
	next := t.loader.Rescan(prev, t.roots...)
	if next.Len() == prev.Len() {
		t.logger.Debug("Rescan found no new packages", "packages", prev.Len())
		return nil
	}
	t.live.Swap(t.build(next))
	t.logger.Info("Rescan added packages", "added", next.Len()-prev.Len(), "packages", next.Len())
	return nil
}
