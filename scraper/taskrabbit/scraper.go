package taskrabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"taskrabbit-scraper/config"
	"taskrabbit-scraper/models"
	"taskrabbit-scraper/utils"
)

const (
	pollInterval = 250 * time.Millisecond
	// optionalWait bounds the search for controls that may legitimately
	// be absent, such as a Continue button after an auto-advancing choice.
	optionalWait = 3 * time.Second
	targetAttr   = "data-scraper-target"
)

// Session is one Chrome instance with one tab, driven through the
// booking flow of a single category. Operations must not run
// concurrently.
type Session struct {
	browser config.BrowserConfig
	scrape  config.ScrapeConfig

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	spec      models.CategorySpec
	seq       int
	closeOnce sync.Once
}

// NewSession launches Chrome and opens a blank tab with the webdriver
// markers patched. The browser lives until Close or until ctx ends.
func NewSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	utils.Info("Launching Chrome browser...")
	allocCtx, allocCancel := chromedp.NewExecAllocator(
		ctx,
		utils.BrowserOpts(cfg.Browser.Headless, cfg.Browser.UserAgent)...,
	)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run allocates the browser and must use the tab context
	// itself; a derived timeout context would kill Chrome when it ends.
	if err := chromedp.Run(tabCtx, utils.HideWebDriver()); err != nil {
		tabCancel()
		allocCancel()
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	utils.Success("Browser ready")

	return &Session{
		browser:     cfg.Browser,
		scrape:      cfg.Scrape,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
	}, nil
}

// Close kills the browser. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		utils.Info("Closing browser...")
		s.tabCancel()
		s.allocCancel()
	})
	return nil
}

// step derives a bounded context for one browser operation. It ends at
// the timeout or when ctx is done, whichever comes first.
func (s *Session) step(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	stepCtx, cancel := context.WithTimeout(s.tabCtx, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return stepCtx, func() {
		stop()
		cancel()
	}
}

// Open loads the category page and waits for the document body.
func (s *Session) Open(ctx context.Context, spec models.CategorySpec) error {
	s.spec = spec
	stepCtx, cancel := s.step(ctx, s.browser.PageLoadTimeout)
	defer cancel()

	utils.Debug("Opening %s", spec.URL)
	err := chromedp.Run(stepCtx,
		chromedp.Navigate(spec.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return stepErr("open "+spec.URL, ErrNavigation, err)
	}
	return nil
}

// EnterAddress starts the booking if needed, types address, picks the
// first autocomplete suggestion and continues.
func (s *Session) EnterAddress(ctx context.Context, address string) error {
	stepCtx, cancel := s.step(ctx, s.browser.StepTimeout)
	defer cancel()

	if clicked, err := s.clickOnce(stepCtx, startBookingXPaths); err == nil && clicked {
		utils.Debug("Clicked start booking button")
	}

	input, err := s.mark(stepCtx, addressInputXPaths)
	if err != nil {
		return stepErr("find address input", ErrAddressEntry, err)
	}
	if err := s.typeInto(stepCtx, input, address); err != nil {
		return stepErr("type address", ErrAddressEntry, err)
	}

	suggestion, err := s.mark(stepCtx, addressSuggestionXPaths)
	if err != nil {
		return stepErr("select address suggestion", ErrAddressEntry, err)
	}
	if err := s.click(stepCtx, suggestion); err != nil {
		return stepErr("select address suggestion", ErrAddressEntry, err)
	}

	next, err := s.mark(stepCtx, continueXPaths)
	if err != nil {
		return stepErr("continue after address", ErrAddressEntry, err)
	}
	if err := s.click(stepCtx, next); err != nil {
		return stepErr("continue after address", ErrAddressEntry, err)
	}
	return nil
}

// Submit leaves the configuration flow and waits for the first tasker
// card. The submit control is clicked once, as soon as it appears; if the
// flow already landed on the listing no click is needed.
func (s *Session) Submit(ctx context.Context) error {
	stepCtx, cancel := s.step(ctx, s.browser.ResultsTimeout)
	defer cancel()

	label := s.spec.SubmitLabel
	if label == "" {
		label = config.DefaultSubmitLabel
	}
	controls := append(labelXPaths(label), continueXPaths...)

	clicked := false
	err := poll(stepCtx, func(ctx context.Context) (bool, error) {
		n, err := s.cardCount(ctx)
		if err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
		if !clicked {
			clicked, err = s.clickOnce(ctx, controls)
			if clicked {
				utils.Debug("Clicked %q", label)
			}
		}
		return false, err
	})
	if err != nil {
		return stepErr("submit", ErrSubmit, err)
	}
	return nil
}

const cardsJS = `((xpaths) => {
	for (const xp of xpaths) {
		const r = document.evaluate(xp, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		if (r.snapshotLength === 0) continue;
		const out = [];
		for (let i = 0; i < r.snapshotLength; i++) out.push(r.snapshotItem(i).outerHTML);
		return out;
	}
	return [];
})(%s)`

// Cards returns the outer HTML of the rendered tasker cards, at most
// scrape.max_cards_per_page of them.
func (s *Session) Cards(ctx context.Context) ([]string, error) {
	stepCtx, cancel := s.step(ctx, s.browser.StepTimeout)
	defer cancel()

	var cards []string
	if err := chromedp.Run(stepCtx, chromedp.Evaluate(fmt.Sprintf(cardsJS, jsArg(cardXPaths)), &cards)); err != nil {
		return nil, fmt.Errorf("read cards: %w", err)
	}
	if limit := s.scrape.MaxCardsPerPage; limit > 0 && len(cards) > limit {
		utils.Debug("Found %d cards, keeping the first %d", len(cards), limit)
		cards = cards[:limit]
	}
	return cards, nil
}

// NextPage clicks the control for the next results page and waits for
// the first card to change. It reports false when the page has no next
// control. A click that leaves the listing unchanged still reports true;
// the Paginator decides when to give up.
func (s *Session) NextPage(ctx context.Context) (bool, error) {
	stepCtx, cancel := s.step(ctx, s.browser.StepTimeout)
	defer cancel()

	var document string
	if err := chromedp.Run(stepCtx, chromedp.OuterHTML("html", &document, chromedp.ByQuery)); err != nil {
		return false, fmt.Errorf("read results page: %w", err)
	}
	info, err := InspectPagination(document)
	if err != nil {
		return false, err
	}
	if !info.HasNext {
		utils.Debug("No next page after page %d", info.Current)
		return false, nil
	}

	before, err := s.firstCard(stepCtx)
	if err != nil {
		return false, err
	}
	clicked, err := s.clickOnce(stepCtx, []string{info.NextXPath})
	if err != nil {
		return false, fmt.Errorf("click next page: %w", err)
	}
	if !clicked {
		return false, nil
	}

	err = poll(stepCtx, func(ctx context.Context) (bool, error) {
		first, err := s.firstCard(ctx)
		return err == nil && first != "" && first != before, err
	})
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		utils.Debug("Listing did not change after moving to page %d", info.Current+1)
	}
	return true, nil
}

func (s *Session) firstCard(ctx context.Context) (string, error) {
	var cards []string
	if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(cardsJS, jsArg(cardXPaths[:1])), &cards)); err != nil {
		return "", err
	}
	if len(cards) == 0 {
		return "", nil
	}
	return cards[0], nil
}

func (s *Session) cardCount(ctx context.Context) (int, error) {
	var cards []string
	if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(cardsJS, jsArg(cardXPaths)), &cards)); err != nil {
		return 0, err
	}
	return len(cards), nil
}

const markJS = `((xpaths, token) => {
	for (const old of document.querySelectorAll('[` + targetAttr + `]')) old.removeAttribute('` + targetAttr + `');
	const visible = el => !!(el.offsetWidth || el.offsetHeight || el.getClientRects().length);
	for (const xp of xpaths) {
		const r = document.evaluate(xp, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
		for (let i = 0; i < r.snapshotLength; i++) {
			const el = r.snapshotItem(i);
			if (el.nodeType === 1 && visible(el)) {
				el.setAttribute('` + targetAttr + `', token);
				return true;
			}
		}
	}
	return false;
})(%s, %s)`

// markOnce tags the first visible element matched by xpaths, in order,
// and returns a CSS selector for it. found is false when nothing matches.
func (s *Session) markOnce(ctx context.Context, xpaths []string) (sel string, found bool, err error) {
	s.seq++
	token := strconv.Itoa(s.seq)
	if err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(markJS, jsArg(xpaths), jsArg(token)), &found)); err != nil {
		return "", false, err
	}
	return fmt.Sprintf(`[%s="%s"]`, targetAttr, token), found, nil
}

// mark polls until one of xpaths matches a visible element.
func (s *Session) mark(ctx context.Context, xpaths []string) (string, error) {
	var sel string
	err := poll(ctx, func(ctx context.Context) (bool, error) {
		var found bool
		var err error
		sel, found, err = s.markOnce(ctx, xpaths)
		return found, err
	})
	return sel, err
}

func (s *Session) click(ctx context.Context, sel string) error {
	return chromedp.Run(ctx,
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(`document.querySelector(%s).click()`, jsArg(sel)), nil),
	)
}

// clickOnce clicks the first visible match of xpaths without waiting.
func (s *Session) clickOnce(ctx context.Context, xpaths []string) (bool, error) {
	sel, found, err := s.markOnce(ctx, xpaths)
	if err != nil || !found {
		return false, err
	}
	return true, s.click(ctx, sel)
}

// clickOptional waits briefly for one of xpaths and clicks it. Absence
// is not an error.
func (s *Session) clickOptional(ctx context.Context, xpaths []string) (bool, error) {
	waitCtx, cancel := context.WithTimeout(ctx, optionalWait)
	defer cancel()

	sel, err := s.mark(waitCtx, xpaths)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return true, s.click(ctx, sel)
}

// typeInto replaces the value of the input at sel with text using real
// key events, so client-side form state sees the change.
func (s *Session) typeInto(ctx context.Context, sel, text string) error {
	return chromedp.Run(ctx,
		chromedp.ScrollIntoView(sel, chromedp.ByQuery),
		chromedp.Focus(sel, chromedp.ByQuery),
		chromedp.Clear(sel, chromedp.ByQuery),
		chromedp.SendKeys(sel, text, chromedp.ByQuery),
	)
}

// poll evaluates cond until it reports true or ctx ends. Errors from
// cond are retried; the last one is reported on timeout.
func poll(ctx context.Context, cond func(context.Context) (bool, error)) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := cond(ctx)
		if ok {
			return nil
		}
		if err != nil {
			lastErr = err
		}
		select {
		case <-ctx.Done():
			if lastErr != nil && ctx.Err() != lastErr {
				return fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// jsArg encodes v as a JavaScript literal.
func jsArg(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
