package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type MemStore struct {
	mu     sync.RWMutex
	m      map[int]Part
	nextID int
}

func NewMemStore(seed ...Part) *MemStore {
	s := &MemStore{m: map[int]Part{}, nextID: 1}
	for _, p := range seed {
		_, _ = s.Insert(context.Background(), p)
	}
	return s
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context) ([]Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(func(Part) bool { return true }), nil
}

func (s *MemStore) Get(ctx context.Context, id int) (Part, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}

func (s *MemStore) GetMany(ctx context.Context, ids []int) ([]Part, error) {
	want := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(func(p Part) bool {
		_, ok := want[p.ID]
		return ok
	}), nil
}

func (s *MemStore) Insert(ctx context.Context, p Part) (Part, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.nextID
	s.nextID++
	s.m[p.ID] = p
	return p, nil
}

func (s *MemStore) Update(ctx context.Context, p Part) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[p.ID]; !ok {
		return false, nil
	}
	s.m[p.ID] = p
	return true, nil
}

func (s *MemStore) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[id]; !ok {
		return false, nil
	}
	delete(s.m, id)
	return true, nil
}

func (s *MemStore) SearchText(ctx context.Context, q string) ([]Part, error) {
	q = strings.ToLower(q)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(func(p Part) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Category), q)
	}), nil
}

func (s *MemStore) Categories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	out := make([]string, 0, 8)
	for _, p := range s.sortedLocked(func(Part) bool { return true }) {
		if _, dup := seen[p.Category]; dup {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out, nil
}

func (s *MemStore) sortedLocked(keep func(Part) bool) []Part {
	out := make([]Part, 0, len(s.m))
	for _, p := range s.m {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
