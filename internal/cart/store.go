// Package cart keeps a session's shopping cart in memory and mirrors every
// change to persistent storage before the change becomes visible.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/utafrali/electroshop/internal/domain"
	"github.com/utafrali/electroshop/internal/pricing"
	"github.com/utafrali/electroshop/internal/repository"
	apperrors "github.com/utafrali/electroshop/pkg/errors"
)

// Publisher receives cart change notifications. Delivery is best-effort.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, snapshot domain.CartSnapshot) error
	PublishCartCleared(ctx context.Context, sessionID string) error
}

// Deps are the collaborators shared by every Store.
type Deps struct {
	Mirror     repository.CartMirror
	Normalizer *pricing.Normalizer
	Publisher  Publisher // optional
	Logger     *slog.Logger
}

// Store is one session's cart. Mutations are serialized and write-through:
// the mirror is updated first and memory only changes when that succeeds, so
// memory and mirror never disagree.
type Store struct {
	mu        sync.Mutex
	sessionID string
	items     []domain.LineItem
	deps      Deps
}

// Open rehydrates the session's cart from the mirror. A missing or corrupt
// mirror yields an empty cart; only a mirror that cannot be reached is an
// error.
func Open(ctx context.Context, sessionID string, deps Deps) (*Store, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	s := &Store{sessionID: sessionID, deps: deps}

	records, err := deps.Mirror.Load(ctx, sessionID)
	switch {
	case errors.Is(err, repository.ErrCorruptMirror):
		deps.Logger.WarnContext(ctx, "discarding corrupt cart mirror",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return s, nil
	case err != nil:
		return nil, apperrors.Unavailable("cart storage unavailable", fmt.Errorf("load cart %s: %w", sessionID, err))
	}

	items := make([]domain.LineItem, 0, len(records))
	for _, rec := range records {
		if item, ok := deps.Normalizer.Item(rec); ok {
			items = append(items, item)
		}
	}
	s.items = deps.Normalizer.Sanitize(items)
	return s, nil
}

// SessionID returns the session the store belongs to.
func (s *Store) SessionID() string {
	return s.sessionID
}

// AddToCart merges product into the cart by id. A known id gains one unit
// unless it is already at MaxQuantity; an unknown id is appended with
// quantity 1. Products without a resolvable id are ignored.
func (s *Store) AddToCart(ctx context.Context, product map[string]any) error {
	item, ok := s.deps.Normalizer.Item(product)
	if !ok {
		s.deps.Logger.WarnContext(ctx, "ignoring product without id", slog.String("session_id", s.sessionID))
		mutationsTotal.WithLabelValues("add", "noop").Inc()
		return nil
	}

	return s.mutate(ctx, "add", func(items []domain.LineItem) ([]domain.LineItem, bool) {
		if i := indexOf(items, item.ID); i >= 0 {
			if items[i].Qty >= domain.MaxQuantity {
				return items, false
			}
			items[i].Qty++
			return items, true
		}
		item.Qty = domain.MinQuantity
		return append(items, item), true
	})
}

// IncreaseQuantity adds one unit to id, up to MaxQuantity.
func (s *Store) IncreaseQuantity(ctx context.Context, id string) error {
	return s.adjust(ctx, "increase", id, +1)
}

// DecreaseQuantity removes one unit from id, never below MinQuantity.
func (s *Store) DecreaseQuantity(ctx context.Context, id string) error {
	return s.adjust(ctx, "decrease", id, -1)
}

func (s *Store) adjust(ctx context.Context, op, id string, delta int) error {
	return s.mutate(ctx, op, func(items []domain.LineItem) ([]domain.LineItem, bool) {
		i := indexOf(items, id)
		if i < 0 {
			return items, false
		}
		next := pricing.ClampQuantity(items[i].Qty + delta)
		if next == items[i].Qty {
			return items, false
		}
		items[i].Qty = next
		return items, true
	})
}

// RemoveFromCart deletes id. Unknown ids are ignored.
func (s *Store) RemoveFromCart(ctx context.Context, id string) error {
	return s.mutate(ctx, "remove", func(items []domain.LineItem) ([]domain.LineItem, bool) {
		i := indexOf(items, id)
		if i < 0 {
			return items, false
		}
		return slices.Delete(items, i, i+1), true
	})
}

// ClearCart empties the cart and its mirror.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	if err := s.deps.Mirror.Clear(ctx, s.sessionID); err != nil {
		s.mu.Unlock()
		mutationsTotal.WithLabelValues("clear", "failed").Inc()
		return apperrors.Unavailable("cart storage unavailable", fmt.Errorf("clear cart %s: %w", s.sessionID, err))
	}
	s.items = nil
	s.mu.Unlock()

	mutationsTotal.WithLabelValues("clear", "applied").Inc()
	if p := s.deps.Publisher; p != nil {
		if err := p.PublishCartCleared(ctx, s.sessionID); err != nil {
			s.logPublishError(ctx, err)
		}
	}
	return nil
}

// mutate applies fn to a copy of the items. When fn reports a change the
// copy is saved to the mirror and only then installed.
func (s *Store) mutate(ctx context.Context, op string, fn func([]domain.LineItem) ([]domain.LineItem, bool)) error {
	s.mu.Lock()
	next, changed := fn(slices.Clone(s.items))
	if !changed {
		s.mu.Unlock()
		mutationsTotal.WithLabelValues(op, "noop").Inc()
		return nil
	}

	if err := s.deps.Mirror.Save(ctx, s.sessionID, next); err != nil {
		s.mu.Unlock()
		mutationsTotal.WithLabelValues(op, "failed").Inc()
		return apperrors.Unavailable("cart storage unavailable", fmt.Errorf("save cart %s: %w", s.sessionID, err))
	}
	s.items = next
	snap := s.snapshotLocked()
	s.mu.Unlock()

	mutationsTotal.WithLabelValues(op, "applied").Inc()
	if p := s.deps.Publisher; p != nil {
		if err := p.PublishCartUpdated(ctx, snap); err != nil {
			s.logPublishError(ctx, err)
		}
	}
	return nil
}

func (s *Store) logPublishError(ctx context.Context, err error) {
	s.deps.Logger.WarnContext(ctx, "failed to publish cart event",
		slog.String("session_id", s.sessionID),
		slog.String("error", err.Error()),
	)
}

// Items returns every row in insertion order, including unpriced ones.
func (s *Store) Items() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Visible returns the rows that are rendered: those with a positive price.
func (s *Store) Visible() []domain.LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked()
}

// Lookup returns the row for id.
func (s *Store) Lookup(id string) (domain.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.items, id); i >= 0 {
		return s.items[i], true
	}
	return domain.LineItem{}, false
}

// ItemCount is the number of units across visible rows.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemCountLocked()
}

// TotalPrice sums price times quantity over visible rows. Values are
// re-normalized at read time and summed in decimal, rounded to cents.
func (s *Store) TotalPrice() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

// Snapshot returns the visible rows with their derived totals.
func (s *Store) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() domain.CartSnapshot {
	return domain.CartSnapshot{
		SessionID:  s.sessionID,
		Items:      s.visibleLocked(),
		ItemCount:  s.itemCountLocked(),
		TotalPrice: s.totalLocked(),
	}
}

func (s *Store) visibleLocked() []domain.LineItem {
	out := make([]domain.LineItem, 0, len(s.items))
	for _, it := range s.items {
		if s.deps.Normalizer.Price(it.Price) > 0 {
			out = append(out, it)
		}
	}
	return out
}

func (s *Store) itemCountLocked() int {
	n := 0
	for _, it := range s.items {
		if s.deps.Normalizer.Price(it.Price) > 0 {
			n += pricing.ClampQuantity(it.Qty)
		}
	}
	return n
}

func (s *Store) totalLocked() float64 {
	total := decimal.Zero
	for _, it := range s.items {
		price := s.deps.Normalizer.Price(it.Price)
		if price <= 0 {
			continue
		}
		line := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(pricing.ClampQuantity(it.Qty))))
		total = total.Add(line)
	}
	return total.Round(2).InexactFloat64()
}

func indexOf(items []domain.LineItem, id string) int {
	return slices.IndexFunc(items, func(it domain.LineItem) bool { return it.ID == id })
}
