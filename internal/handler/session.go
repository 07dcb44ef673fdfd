package handler

import (
	"sync"

	"github.com/kalipos/storefront/internal/domain/cart"
)

// Sessions maps each user to their single active cart. Only the map itself
// is guarded; a cart is mutated by exactly one session's request at a time,
// so the carts need no locking of their own.
type Sessions struct {
	mu    sync.Mutex
	carts map[int64]*cart.Cart
}

// NewSessions returns an empty session registry.
func NewSessions() *Sessions {
	return &Sessions{carts: make(map[int64]*cart.Cart)}
}

// Cart returns the user's active cart, creating an empty one on first use.
func (s *Sessions) Cart(userID int64) *cart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		c = cart.New()
		s.carts[userID] = c
	}
	return c
}
