package taskrabbit

import (
	"context"
	"fmt"
	"hash/fnv"
)

type State int

const (
	HasMore State = iota
	Exhausted
)

func (s State) String() string {
	switch s {
	case HasMore:
		return "HAS_MORE"
	case Exhausted:
		return "EXHAUSTED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PageSource is a paginated results listing.
type PageSource interface {
	// Cards returns the outer HTML of the cards currently rendered.
	Cards(ctx context.Context) ([]string, error)
	// NextPage triggers the next page. It reports false when the listing
	// has no next-page control.
	NextPage(ctx context.Context) (bool, error)
}

// unchangedLimit is how many consecutive next-page triggers may leave
// the listing on an already seen page before pagination gives up.
const unchangedLimit = 2

// Paginator walks a PageSource from the first page until the listing is
// exhausted or maxPages pages have been returned.
type Paginator struct {
	src      PageSource
	maxPages int

	// Settle, when set, runs after each next-page trigger that found a
	// next control and before the new page is read.
	Settle func(ctx context.Context) error

	state   State
	page    int
	current []string
	seen    map[uint64]bool
}

// NewPaginator returns a paginator in the HasMore state. maxPages <= 0
// means no limit.
func NewPaginator(src PageSource, maxPages int) *Paginator {
	return &Paginator{
		src:      src,
		maxPages: maxPages,
		state:    HasMore,
		seen:     make(map[uint64]bool),
	}
}

// Current returns the cards of the current page, loading the first page
// on the first call.
func (p *Paginator) Current(ctx context.Context) ([]string, error) {
	if p.page == 0 {
		cards, err := p.src.Cards(ctx)
		if err != nil {
			return nil, fmt.Errorf("load first page: %w", err)
		}
		p.page = 1
		p.current = cards
		p.seen[pageIdentity(cards)] = true
	}
	return p.current, nil
}

// Advance moves to the next page and reports whether a new page was
// reached. It transitions to Exhausted when the page limit is hit, when
// the listing has no next control, or when two consecutive triggers
// leave the listing on a page it has already returned.
func (p *Paginator) Advance(ctx context.Context) (bool, error) {
	if p.state == Exhausted {
		return false, nil
	}
	if p.page == 0 {
		if _, err := p.Current(ctx); err != nil {
			return false, err
		}
	}
	if p.maxPages > 0 && p.page >= p.maxPages {
		p.state = Exhausted
		return false, nil
	}

	for unchanged := 0; unchanged < unchangedLimit; unchanged++ {
		ok, err := p.src.NextPage(ctx)
		if err != nil {
			p.state = Exhausted
			return false, fmt.Errorf("advance from page %d: %w", p.page, err)
		}
		if !ok {
			p.state = Exhausted
			return false, nil
		}
		if p.Settle != nil {
			if err := p.Settle(ctx); err != nil {
				p.state = Exhausted
				return false, err
			}
		}

		cards, err := p.src.Cards(ctx)
		if err != nil {
			p.state = Exhausted
			return false, fmt.Errorf("load page %d: %w", p.page+1, err)
		}
		id := pageIdentity(cards)
		if len(cards) == 0 || p.seen[id] {
			continue
		}

		p.seen[id] = true
		p.page++
		p.current = cards
		return true, nil
	}

	p.state = Exhausted
	return false, nil
}

func (p *Paginator) State() State { return p.state }

// Page is the 1-based number of the current page, 0 before the first
// page is loaded.
func (p *Paginator) Page() int { return p.page }

// pageIdentity hashes the full ordered card set.
func pageIdentity(cards []string) uint64 {
	h := fnv.New64a()
	for _, c := range cards {
		h.Write([]byte(c))
		h.Write([]byte{0})
	}
	return h.Sum64()
}
