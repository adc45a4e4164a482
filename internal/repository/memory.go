package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fakturan-dev/catalog-service/internal/domain"
)

// MemoryStore keeps the catalog in process memory. It backs local mode and
// the test suites; semantics mirror the SQL backend exactly.
type MemoryStore struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]domain.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[int64]domain.Product{}}
}

func (s *MemoryStore) EnsureSchema(ctx context.Context) error { return nil }
func (s *MemoryStore) Ping(ctx context.Context) error         { return nil }
func (s *MemoryStore) Close() error                           { return nil }

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matches(p domain.Product, f ListFilter) bool {
	if f.ArticleNo != "" && !containsFold(p.ArticleNo, f.ArticleNo) {
		return false
	}
	if f.Name != "" && !containsFold(p.Name, f.Name) {
		return false
	}
	if f.Search != "" && !containsFold(p.ArticleNo, f.Search) && !containsFold(p.Name, f.Search) {
		return false
	}
	return true
}

func (s *MemoryStore) List(ctx context.Context, f ListFilter) ([]domain.Product, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]domain.Product, 0, len(s.items))
	for _, p := range s.items {
		if matches(p, f) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	start := f.Offset
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (s *MemoryStore) Create(ctx context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	now := time.Now().UTC()
	p.ID = s.seq
	p.CreatedAt = now
	p.UpdatedAt = now
	s.items[p.ID] = *p
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, id int64, cs domain.ChangeSet) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.items[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	if cs.ArticleNo != nil {
		p.ArticleNo = *cs.ArticleNo
	}
	if cs.Name != nil {
		p.Name = *cs.Name
	}
	if cs.InPrice != nil {
		p.InPrice = *cs.InPrice
	}
	if cs.Price != nil {
		p.Price = *cs.Price
	}
	if cs.Unit != nil {
		p.Unit = *cs.Unit
	}
	if cs.InStock != nil {
		p.InStock = *cs.InStock
	}
	if cs.Description != nil {
		d := *cs.Description
		p.Description = &d
	}
	p.UpdatedAt = time.Now().UTC()
	s.items[id] = p
	return &p, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrProductNotFound
	}
	delete(s.items, id)
	return nil
}
