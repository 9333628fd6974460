package catalogclient

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by Latest.Fetch when a newer Fetch was issued
// before this one completed.
var ErrSuperseded = errors.New("listing request superseded")

// Lister is implemented by Client.
type Lister interface {
	ListProducts(ctx context.Context, q Query) (*Page, error)
}

// Latest orders listing requests last-issued-wins. Each Fetch cancels the
// one before it, and a response that arrives after a newer Fetch was issued
// is discarded, so Current always reflects the most recently issued request
// that succeeded.
type Latest struct {
	lister Lister

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current *Page
	query   Query
}

// NewLatest creates a coordinator over lister.
func NewLatest(lister Lister) *Latest {
	return &Latest{lister: lister}
}

// Fetch issues q and waits for it. It returns ErrSuperseded if another
// request is issued before this one finishes, whatever the outcome of the
// underlying call.
func (l *Latest) Fetch(ctx context.Context, q Query) (*Page, error) {
	return l.Issue(ctx, q)()
}

// Issue registers q as the newest request and cancels the one before it. The
// returned function performs the call and must be invoked exactly once; it
// may run on another goroutine, and order is decided here, not when it runs.
func (l *Latest) Issue(ctx context.Context, q Query) func() (*Page, error) {
	ctx, cancel := context.WithCancel(ctx)

	l.mu.Lock()
	l.seq++
	seq := l.seq
	if l.cancel != nil {
		l.cancel()
	}
	l.cancel = cancel
	l.mu.Unlock()

	return func() (*Page, error) {
		defer cancel()

		page, err := l.lister.ListProducts(ctx, q)

		l.mu.Lock()
		defer l.mu.Unlock()
		if seq != l.seq {
			return nil, ErrSuperseded
		}
		l.cancel = nil
		if err != nil {
			return nil, err
		}
		l.current = page
		l.query = q
		return page, nil
	}
}

// Current returns the last page accepted by Fetch and the query that
// produced it.
func (l *Latest) Current() (*Page, Query, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.query, l.current != nil
}
