package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskrabbit-scraper/config"
	"taskrabbit-scraper/models"
	"taskrabbit-scraper/scraper/taskrabbit"
	"taskrabbit-scraper/storage"
)

func card(name string, rate int) string {
	return fmt.Sprintf(`<div data-testid="tasker-card-mobile"><h3>%s</h3><div>$%d/hr</div><div>4.8 (12 reviews)</div></div>`, name, rate)
}

func page(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = card(fmt.Sprintf("%s %c.", prefix, 'A'+i), 40+i)
	}
	return out
}

// fakeSession records the booking-flow calls and serves pages in order.
type fakeSession struct {
	pages    [][]string
	cur      int
	failOpen int // number of Open calls that fail before one succeeds; -1 fails forever
	failAt   string

	calls     []string
	nextCalls int
	closed    bool
}

func (f *fakeSession) step(name string, kind error) error {
	f.calls = append(f.calls, name)
	if f.failAt == name {
		return &taskrabbit.StepError{Step: name, Kind: kind}
	}
	return nil
}

func (f *fakeSession) Open(_ context.Context, spec models.CategorySpec) error {
	f.calls = append(f.calls, "open "+spec.Key)
	if f.failOpen != 0 {
		if f.failOpen > 0 {
			f.failOpen--
		}
		return &taskrabbit.StepError{Step: "open " + spec.URL, Kind: taskrabbit.ErrNavigation}
	}
	return nil
}

func (f *fakeSession) DismissOverlays(context.Context) error {
	return f.step("overlays", taskrabbit.ErrOverlay)
}

func (f *fakeSession) EnterAddress(_ context.Context, address string) error {
	return f.step("address "+address, taskrabbit.ErrAddressEntry)
}

func (f *fakeSession) ApplyOption(_ context.Context, step models.OptionStep) error {
	return f.step(fmt.Sprintf("option %s=%s", step.Kind, step.Value), taskrabbit.ErrOptionApply)
}

func (f *fakeSession) Submit(context.Context) error {
	return f.step("submit", taskrabbit.ErrSubmit)
}

func (f *fakeSession) Cards(context.Context) ([]string, error) {
	if len(f.pages) == 0 {
		return nil, nil
	}
	return f.pages[f.cur], nil
}

func (f *fakeSession) NextPage(context.Context) (bool, error) {
	f.nextCalls++
	if f.cur+1 >= len(f.pages) {
		return false, nil
	}
	f.cur++
	return true, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeSink struct {
	err    error
	stored []models.RunResult
}

func (s *fakeSink) Name() string { return "fake" }

func (s *fakeSink) Store(_ context.Context, result models.RunResult) error {
	s.stored = append(s.stored, result)
	return s.err
}

func (s *fakeSink) Close() error { return nil }

type failingWriter struct{}

func (failingWriter) Write(result models.RunResult) (string, error) {
	return "", &storage.WriteError{Path: "output/x.csv", Records: len(result.Taskers), Err: errors.New("disk full")}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Scrape.MinDelay = 0
	cfg.Scrape.MaxDelay = 0
	cfg.Scrape.MaxRetries = 1
	cfg.Scrape.RetryBackoff = 0
	cfg.Logging.Progress = false
	cfg.Output.Dir = filepath.Join(t.TempDir(), "output")
	return cfg
}

func registry(t *testing.T, specs ...models.CategorySpec) *config.Registry {
	t.Helper()
	r, err := config.NewRegistry(specs)
	require.NoError(t, err)
	return r
}

func spec(key string) models.CategorySpec {
	return models.CategorySpec{Key: key, Name: key, URL: "https://example.com/" + key}
}

// sessions hands out the given fakes in order.
func sessions(fakes ...*fakeSession) SessionFactory {
	i := 0
	return func(context.Context) (Session, error) {
		if i >= len(fakes) {
			return nil, errors.New("no more sessions")
		}
		f := fakes[i]
		i++
		return f, nil
	}
}

func TestRunCategoryPlumbing(t *testing.T) {
	cfg := testConfig(t)
	reg := registry(t, models.CategorySpec{
		Key:     "plumbing",
		Name:    "Plumbing",
		URL:     "https://www.taskrabbit.com/services/handyman/plumbing",
		Options: []models.OptionStep{{Kind: models.OptionTaskDetails, Value: "fix leaky faucet"}},
	})
	sess := &fakeSession{pages: [][]string{page("Alpha", 5), page("Bravo", 3)}}
	sink := &fakeSink{}

	r := NewRunner(cfg, reg, sessions(sess), storage.NewCSVWriter(cfg.Output.Dir), sink)
	result, err := r.RunCategory(context.Background(), "plumbing")
	require.NoError(t, err)

	assert.Equal(t, "plumbing", result.CategoryKey)
	assert.Len(t, result.Taskers, 8)
	assert.Equal(t, "Alpha A.", result.Taskers[0].Name)
	assert.Equal(t, "Bravo C.", result.Taskers[7].Name)
	assert.Equal(t, 2, result.Pages)
	assert.Zero(t, result.Skipped)
	assert.NotEmpty(t, result.RunID)

	assert.Equal(t, cfg.Output.Dir, filepath.Dir(result.OutputPath))
	assert.Regexp(t, regexp.MustCompile(`^plumbing_\d{8}_\d{6}\.csv$`), filepath.Base(result.OutputPath))

	assert.Equal(t, []string{
		"open plumbing",
		"overlays",
		"address " + config.DefaultAddress,
		"option task_details=fix leaky faucet",
		"submit",
	}, sess.calls)
	assert.True(t, sess.closed)

	require.Len(t, sink.stored, 1)
	assert.Equal(t, result.OutputPath, sink.stored[0].OutputPath)
}

func TestRunCategoryEveryDefaultKey(t *testing.T) {
	cfg := testConfig(t)
	reg := config.DefaultRegistry()

	for _, key := range reg.Keys() {
		t.Run(key, func(t *testing.T) {
			sess := &fakeSession{pages: [][]string{page("Alpha", 2)}}
			r := NewRunner(cfg, reg, sessions(sess), storage.NewCSVWriter(cfg.Output.Dir))

			result, err := r.RunCategory(context.Background(), key)
			require.NoError(t, err)
			assert.Equal(t, key, result.CategoryKey)
			assert.True(t, sess.closed)
		})
	}
}

func TestRunCategorySkipsNamelessCards(t *testing.T) {
	cfg := testConfig(t)
	cards := []string{
		card("Jane D.", 45),
		`<div data-testid="tasker-card-mobile"><h3> </h3><div>$50/hr</div></div>`,
		card("Omar K.", 55),
	}
	sess := &fakeSession{pages: [][]string{cards}}
	r := NewRunner(cfg, registry(t, spec("plumbing")), sessions(sess), storage.NewCSVWriter(cfg.Output.Dir))

	result, err := r.RunCategory(context.Background(), "plumbing")
	require.NoError(t, err)

	assert.Len(t, result.Taskers, 2)
	assert.Equal(t, 1, result.Skipped)
}

func TestRunCategoryRespectsMaxPages(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scrape.MaxPages = 1
	sess := &fakeSession{pages: [][]string{page("Alpha", 5), page("Bravo", 3)}}
	r := NewRunner(cfg, registry(t, spec("plumbing")), sessions(sess), storage.NewCSVWriter(cfg.Output.Dir))

	result, err := r.RunCategory(context.Background(), "plumbing")
	require.NoError(t, err)

	assert.Len(t, result.Taskers, 5)
	assert.Zero(t, sess.nextCalls)
}

func TestRunCategoryUnknownKey(t *testing.T) {
	cfg := testConfig(t)
	started := false
	factory := func(context.Context) (Session, error) {
		started = true
		return &fakeSession{}, nil
	}
	r := NewRunner(cfg, registry(t, spec("plumbing")), factory, storage.NewCSVWriter(cfg.Output.Dir))

	_, err := r.RunCategory(context.Background(), "gardening")
	assert.ErrorIs(t, err, config.ErrUnknownCategory)
	assert.False(t, started)
}

func TestRunCategoryRetriesNavigation(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scrape.MaxRetries = 3
	sess := &fakeSession{pages: [][]string{page("Alpha", 1)}, failOpen: 2}
	r := NewRunner(cfg, registry(t, spec("plumbing")), sessions(sess), storage.NewCSVWriter(cfg.Output.Dir))

	result, err := r.RunCategory(context.Background(), "plumbing")
	require.NoError(t, err)
	assert.Len(t, result.Taskers, 1)
	assert.Equal(t, []string{"open plumbing", "open plumbing", "open plumbing", "overlays"}, sess.calls[:4])
}

func TestRunCategoryStepFailureClosesSession(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{pages: [][]string{page("Alpha", 1)}, failAt: "submit"}
	r := NewRunner(cfg, registry(t, spec("plumbing")), sessions(sess), storage.NewCSVWriter(cfg.Output.Dir))

	_, err := r.RunCategory(context.Background(), "plumbing")
	assert.ErrorIs(t, err, taskrabbit.ErrSubmit)
	assert.True(t, sess.closed)
}

func TestRunCategoryWriteErrorSurfacesRecordCount(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{pages: [][]string{page("Alpha", 4)}}
	sink := &fakeSink{}
	r := NewRunner(cfg, registry(t, spec("plumbing")), sessions(sess), failingWriter{}, sink)

	_, err := r.RunCategory(context.Background(), "plumbing")
	var werr *storage.WriteError
	require.True(t, errors.As(err, &werr))
	assert.Equal(t, 4, werr.Records)
	assert.Empty(t, sink.stored)
	assert.True(t, sess.closed)
}

func TestRunCategorySinkFailureIsNotFatal(t *testing.T) {
	cfg := testConfig(t)
	sess := &fakeSession{pages: [][]string{page("Alpha", 2)}}
	sink := &fakeSink{err: errors.New("connection refused")}
	r := NewRunner(cfg, registry(t, spec("plumbing")), sessions(sess), storage.NewCSVWriter(cfg.Output.Dir), sink)

	result, err := r.RunCategory(context.Background(), "plumbing")
	require.NoError(t, err)
	assert.NotEmpty(t, result.OutputPath)
	assert.Len(t, sink.stored, 1)
}

func TestRunAllIsolatesFailures(t *testing.T) {
	cfg := testConfig(t)
	reg := registry(t, spec("first"), spec("second"), spec("third"))
	first := &fakeSession{pages: [][]string{page("Alpha", 2)}}
	second := &fakeSession{failOpen: -1}
	third := &fakeSession{pages: [][]string{page("Bravo", 3)}}

	r := NewRunner(cfg, reg, sessions(first, second, third), storage.NewCSVWriter(cfg.Output.Dir))
	outcomes := r.RunAll(context.Background())

	require.Len(t, outcomes, 3)
	assert.Equal(t, "first", outcomes[0].Key)
	require.NotNil(t, outcomes[0].Result)
	assert.Len(t, outcomes[0].Result.Taskers, 2)

	assert.Equal(t, "second", outcomes[1].Key)
	assert.Nil(t, outcomes[1].Result)
	assert.ErrorIs(t, outcomes[1].Err, taskrabbit.ErrNavigation)

	assert.Equal(t, "third", outcomes[2].Key)
	require.NotNil(t, outcomes[2].Result)
	assert.Len(t, outcomes[2].Result.Taskers, 3)

	assert.True(t, first.closed)
	assert.True(t, second.closed)
	assert.True(t, third.closed)
	assert.False(t, Failed(outcomes))
}

func TestRunAllStopsWhenCancelled(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(cfg, registry(t, spec("first"), spec("second")), sessions(), storage.NewCSVWriter(cfg.Output.Dir))
	outcomes := r.RunAll(ctx)

	assert.Empty(t, outcomes)
	assert.True(t, Failed(outcomes))
}

func TestRunDispatchesTarget(t *testing.T) {
	cfg := testConfig(t)
	reg := registry(t, spec("first"), spec("second"))

	r := NewRunner(cfg, reg, sessions(
		&fakeSession{pages: [][]string{page("Alpha", 1)}},
		&fakeSession{pages: [][]string{page("Bravo", 1)}},
	), storage.NewCSVWriter(cfg.Output.Dir))
	assert.Len(t, r.Run(context.Background(), "ALL"), 2)

	r = NewRunner(cfg, reg, sessions(&fakeSession{failOpen: -1}), storage.NewCSVWriter(cfg.Output.Dir))
	outcomes := r.Run(context.Background(), "second")
	require.Len(t, outcomes, 1)
	assert.True(t, Failed(outcomes))
}

func TestFailed(t *testing.T) {
	ok := models.CategoryOutcome{Key: "a", Result: &models.RunResult{}}
	bad := models.CategoryOutcome{Key: "b", Err: errors.New("boom")}

	assert.False(t, Failed([]models.CategoryOutcome{ok}))
	assert.False(t, Failed([]models.CategoryOutcome{bad, ok}))
	assert.True(t, Failed([]models.CategoryOutcome{bad}))
	assert.True(t, Failed([]models.CategoryOutcome{bad, bad}))
	assert.True(t, Failed(nil))
}

func TestChromeSessionsUsesCallerContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ChromeSessions(testConfig(t))(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunCategoryCancelledBeforeLaunch(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(cfg, registry(t, spec("plumbing")), ChromeSessions(cfg), storage.NewCSVWriter(cfg.Output.Dir))
	_, err := r.RunCategory(ctx, "plumbing")
	assert.ErrorIs(t, err, context.Canceled)
}
