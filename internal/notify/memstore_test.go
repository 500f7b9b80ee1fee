package notify

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// memStore is an in-memory Store used across the package tests. Its CAS
// mirrors the status-guarded UPDATE of the pgx store.
type memStore struct {
	mu        sync.Mutex
	items     map[string]*Notification
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{items: make(map[string]*Notification)}
}

func (s *memStore) Insert(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	cp := *n
	s.items[n.ID] = &cp
	return nil
}

func (s *memStore) Get(_ context.Context, id string) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *n
	return &cp, nil
}

func (s *memStore) ListForUser(_ context.Context, userID string) ([]Notification, error) {
	return s.filter(userID, func(n *Notification) bool { return true })
}

func (s *memStore) ListPending(_ context.Context, userID string) ([]Notification, error) {
	return s.filter(userID, func(n *Notification) bool { return n.Status == StatusPending })
}

func (s *memStore) filter(userID string, keep func(*Notification) bool) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Notification
	for _, n := range s.items {
		if n.RecipientUserID == userID && keep(n) {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) TransitionFromPending(_ context.Context, id string, to Status) (*Notification, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.items[id]
	if !ok {
		return nil, false, ErrNotFound
	}
	if n.Status != StatusPending {
		cp := *n
		return &cp, false, nil
	}
	n.Status = to
	cp := *n
	return &cp, true, nil
}

var errInsertBroken = errors.New("insert broken")
