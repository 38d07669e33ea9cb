package cart

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/util"
)

const sessionKey = "cart"

// Entry is one anonymous cart line. Display fields are snapshotted from the
// product at first add so later reads don't need the database.
type Entry struct {
	ProductID uint
	Quantity  uint
	Name      string
	Price     float64
	Image     string
}

// SessionStore is the cart of an anonymous visitor, held in the injected
// session store under the guest token. Mutations go through session.Store's
// Update so concurrent requests with the same token are serialized; stored
// maps are never written in place, every write installs a fresh copy.
type SessionStore struct {
	Sessions session.Store
	Token    string
	DB       *gorm.DB
	BaseURL  string
}

func (s *SessionStore) load() map[uint]Entry {
	if v, ok := s.Sessions.Get(s.Token, sessionKey); ok {
		if m, ok := v.(map[uint]Entry); ok {
			return m
		}
	}
	return nil
}

func cloneEntries(v interface{}, ok bool) map[uint]Entry {
	out := make(map[uint]Entry)
	if !ok {
		return out
	}
	if m, ok := v.(map[uint]Entry); ok {
		for id, e := range m {
			out[id] = e
		}
	}
	return out
}

func (s *SessionStore) Add(ctx context.Context, productID, qty uint) (int, error) {
	// Resolve the display snapshot before taking the store lock. Only new
	// lines need it; repeat adds keep working off the snapshot even if the
	// product row is gone.
	var snapshot *Entry
	if _, ok := s.load()[productID]; !ok {
		var p models.Product
		if err := s.DB.WithContext(ctx).First(&p, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, ErrNotFound
			}
			return 0, err
		}
		snapshot = &Entry{
			ProductID: productID,
			Name:      p.Name,
			Price:     p.Price,
			Image:     util.ImageURL(s.BaseURL, ProductImageDir, util.FirstImage(p.Images)),
		}
	}

	var count int
	s.Sessions.Update(s.Token, sessionKey, func(v interface{}, ok bool) interface{} {
		items := cloneEntries(v, ok)
		if e, ok := items[productID]; ok {
			e.Quantity += qty
			items[productID] = e
		} else if snapshot != nil {
			e := *snapshot
			e.Quantity = qty
			items[productID] = e
		}
		count = len(items)
		return items
	})
	return count, nil
}

func (s *SessionStore) Remove(ctx context.Context, productID, qty uint) (int, error) {
	var count int
	s.Sessions.Update(s.Token, sessionKey, func(v interface{}, ok bool) interface{} {
		items := cloneEntries(v, ok)
		if e, ok := items[productID]; ok {
			if e.Quantity <= qty {
				delete(items, productID)
			} else {
				e.Quantity -= qty
				items[productID] = e
			}
		}
		count = len(items)
		return items
	})
	return count, nil
}

func (s *SessionStore) Lines(ctx context.Context) ([]Line, error) {
	items := s.load()
	if len(items) == 0 {
		return nil, nil
	}

	lines := make([]Line, 0, len(items))
	for _, e := range items {
		lines = append(lines, Line{
			ProductID: e.ProductID,
			Name:      e.Name,
			Price:     e.Price,
			Quantity:  e.Quantity,
			Image:     e.Image,
			Total:     e.Price * float64(e.Quantity),
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines, nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	s.Sessions.Delete(s.Token, sessionKey)
	return nil
}
