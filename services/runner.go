package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"taskrabbit-scraper/config"
	"taskrabbit-scraper/models"
	"taskrabbit-scraper/scraper/taskrabbit"
	"taskrabbit-scraper/storage"
	"taskrabbit-scraper/utils"
)

// AllCategories selects every registered category.
const AllCategories = "all"

// Navigator brings a browser tab to a category's tasker listing.
type Navigator interface {
	Open(ctx context.Context, spec models.CategorySpec) error
	DismissOverlays(ctx context.Context) error
	EnterAddress(ctx context.Context, address string) error
	ApplyOption(ctx context.Context, step models.OptionStep) error
	Submit(ctx context.Context) error
}

// Session is a browser session scoped to one category run.
type Session interface {
	Navigator
	taskrabbit.PageSource
	Close() error
}

// SessionFactory starts a fresh session for each category.
type SessionFactory func(ctx context.Context) (Session, error)

// ChromeSessions launches one chromedp browser per category.
func ChromeSessions(cfg *config.Config) SessionFactory {
	return func(ctx context.Context) (Session, error) {
		return taskrabbit.NewSession(ctx, cfg)
	}
}

// ResultWriter persists a finished run and returns where it went.
type ResultWriter interface {
	Write(result models.RunResult) (string, error)
}

// Runner runs categories one at a time: navigate, paginate, extract,
// write.
type Runner struct {
	cfg        *config.Config
	registry   *config.Registry
	newSession SessionFactory
	writer     ResultWriter
	sinks      []storage.Sink

	newRunID func() string
	now      func() time.Time
}

func NewRunner(cfg *config.Config, registry *config.Registry, newSession SessionFactory, writer ResultWriter, sinks ...storage.Sink) *Runner {
	return &Runner{
		cfg:        cfg,
		registry:   registry,
		newSession: newSession,
		writer:     writer,
		sinks:      sinks,
		newRunID:   func() string { return uuid.NewString() },
		now:        time.Now,
	}
}

// Run runs target, a category key or AllCategories.
func (r *Runner) Run(ctx context.Context, target string) []models.CategoryOutcome {
	if strings.EqualFold(strings.TrimSpace(target), AllCategories) {
		return r.RunAll(ctx)
	}
	result, err := r.RunCategory(ctx, target)
	if err != nil {
		return []models.CategoryOutcome{{Key: target, Err: err}}
	}
	return []models.CategoryOutcome{{Key: result.CategoryKey, Result: &result}}
}

// RunAll runs every registered category in registration order. A failed
// category is logged and recorded; later categories still run. A
// cancelled ctx stops the loop.
func (r *Runner) RunAll(ctx context.Context) []models.CategoryOutcome {
	keys := r.registry.Keys()
	outcomes := make([]models.CategoryOutcome, 0, len(keys))

	for i, key := range keys {
		if ctx.Err() != nil {
			utils.Warn("Interrupted, skipping %d remaining categories", len(keys)-i)
			break
		}

		result, err := r.RunCategory(ctx, key)
		if err != nil {
			utils.Error("Category %s failed: %v", key, err)
			outcomes = append(outcomes, models.CategoryOutcome{Key: key, Err: err})
			continue
		}
		outcomes = append(outcomes, models.CategoryOutcome{Key: key, Result: &result})
	}

	return outcomes
}

// Failed reports whether no category succeeded.
func Failed(outcomes []models.CategoryOutcome) bool {
	for _, o := range outcomes {
		if o.Err == nil {
			return false
		}
	}
	return true
}

// RunCategory scrapes one category and writes its CSV file. The session
// is closed on every return path.
func (r *Runner) RunCategory(ctx context.Context, key string) (models.RunResult, error) {
	spec, err := r.registry.Lookup(key)
	if err != nil {
		return models.RunResult{}, err
	}
	log := utils.With("category", spec.Key)
	utils.Section(spec.Name)

	sess, err := r.newSession(ctx)
	if err != nil {
		return models.RunResult{}, fmt.Errorf("start session: %w", err)
	}
	defer sess.Close()

	err = utils.Retry(ctx, r.cfg.Scrape.MaxRetries, r.cfg.Scrape.RetryBackoff, func() error {
		return r.reachListing(ctx, sess, spec)
	})
	if err != nil {
		return models.RunResult{}, err
	}

	result := models.RunResult{
		RunID:        r.newRunID(),
		CategoryKey:  spec.Key,
		CategoryName: spec.Name,
		StartedAt:    r.now(),
	}
	if err := r.collect(ctx, sess, spec, &result); err != nil {
		return result, err
	}
	log.Info("Extraction finished", "taskers", len(result.Taskers), "pages", result.Pages, "skipped", result.Skipped)

	path, err := r.writer.Write(result)
	if err != nil {
		return result, err
	}
	result.OutputPath = path

	for _, s := range r.sinks {
		if err := s.Store(ctx, result); err != nil {
			utils.Warn("Could not store %s run in %s: %v", spec.Key, s.Name(), err)
		}
	}
	return result, nil
}

// reachListing walks the booking flow from a fresh page load. Each
// attempt starts over from Open.
func (r *Runner) reachListing(ctx context.Context, nav Navigator, spec models.CategorySpec) error {
	if err := nav.Open(ctx, spec); err != nil {
		return err
	}
	if err := nav.DismissOverlays(ctx); err != nil {
		return err
	}
	if err := nav.EnterAddress(ctx, r.cfg.Address); err != nil {
		return err
	}
	for _, step := range spec.Options {
		if err := nav.ApplyOption(ctx, step); err != nil {
			return err
		}
	}
	return nav.Submit(ctx)
}

// collect extracts every page of the listing into result. Cards without
// a name are skipped and counted.
func (r *Runner) collect(ctx context.Context, src taskrabbit.PageSource, spec models.CategorySpec, result *models.RunResult) error {
	extractor := taskrabbit.NewExtractor(spec.Name)
	pager := taskrabbit.NewPaginator(src, r.cfg.Scrape.MaxPages)
	pager.Settle = func(ctx context.Context) error {
		return utils.Pause(ctx, r.cfg.Scrape.MinDelay, r.cfg.Scrape.MaxDelay, r.cfg.Logging.Progress, "Loading next page...")
	}

	for {
		cards, err := pager.Current(ctx)
		if err != nil {
			return err
		}

		before := len(result.Taskers)
		for i, card := range cards {
			tasker, err := extractor.Extract(card)
			if err != nil {
				if errors.Is(err, taskrabbit.ErrMissingName) {
					utils.Warn("Page %d card %d has no tasker name, skipping", pager.Page(), i+1)
				} else {
					utils.Warn("Page %d card %d: %v", pager.Page(), i+1, err)
				}
				result.Skipped++
				continue
			}
			result.Taskers = append(result.Taskers, tasker)
		}
		result.Pages = pager.Page()
		utils.Info("Page %d: %d taskers", pager.Page(), len(result.Taskers)-before)

		ok, err := pager.Advance(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			utils.Warn("Pagination stopped after page %d: %v", pager.Page(), err)
			return nil
		}
		if !ok {
			return nil
		}
	}
}
