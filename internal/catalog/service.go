package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	PartsCacheKey   = "store:parts:all"
	DefaultCacheTTL = 30 * time.Minute
	SearchLimit     = 100
)

// SnapshotCache holds serialized snapshots under string keys.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// SearchIndex is the secondary, eventually consistent copy of parts.
type SearchIndex interface {
	Index(ctx context.Context, p Part) error
	Update(ctx context.Context, p Part) error
	Delete(ctx context.Context, id int) error
	Search(ctx context.Context, q string, size int) ([]Part, error)
}

// Build is the priced result of a part selection.
type Build struct {
	Total decimal.Decimal `json:"total"`
	Parts []Part          `json:"parts"`
}

// Service mediates every read and write across the store, the snapshot
// cache and the search index. The store is written first and is the only
// authoritative copy; cache invalidation and index writes that follow are
// best effort and only logged when they fail.
//
// Cache and Index may be nil, in which case reads go straight to the store.
type Service struct {
	Store    Store
	Cache    SnapshotCache
	Index    SearchIndex
	Log      *zap.Logger
	Metrics  *Metrics
	CacheTTL time.Duration

	loads singleflight.Group
	// writes is bumped by every invalidation; a load that saw it change
	// must not refill the cache.
	writes atomic.Uint64
}

func (s *Service) Ping(ctx context.Context) error {
	return s.Store.Ping(ctx)
}

func (s *Service) List(ctx context.Context) ([]Part, error) {
	return s.Store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int) (Part, error) {
	p, ok, err := s.Store.Get(ctx, id)
	if err != nil {
		return Part{}, err
	}
	if !ok {
		return Part{}, ErrNotFound
	}
	return p, nil
}

// Create inserts p under a store-assigned id; any id in the payload is dropped.
func (s *Service) Create(ctx context.Context, p Part) (Part, error) {
	p.ID = 0

	created, err := s.Store.Insert(ctx, p)
	if err != nil {
		return Part{}, err
	}

	s.invalidate(ctx)
	if s.Index != nil {
		s.sideEffect("index", created.ID, s.Index.Index(ctx, created))
	}
	return created, nil
}

// Update fully replaces the part stored under id.
func (s *Service) Update(ctx context.Context, id int, p Part) error {
	if p.ID != id {
		return fmt.Errorf("%w: id mismatch", ErrBadRequest)
	}

	ok, err := s.Store.Update(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	s.invalidate(ctx)
	if s.Index != nil {
		s.sideEffect("index", id, s.Index.Update(ctx, p))
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	ok, err := s.Store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	s.invalidate(ctx)
	if s.Index != nil {
		s.sideEffect("index", id, s.Index.Delete(ctx, id))
	}
	return nil
}

// StoreParts serves the full catalog from the snapshot cache, loading and
// caching it from the store on a miss. Concurrent misses share one load.
func (s *Service) StoreParts(ctx context.Context) ([]Part, error) {
	if s.Cache == nil {
		return s.Store.List(ctx)
	}

	if parts, ok := s.cached(ctx); ok {
		return parts, nil
	}

	v, err, _ := s.loads.Do(PartsCacheKey, func() (any, error) {
		gen := s.writes.Load()
		parts, err := s.Store.List(ctx)
		if err != nil {
			return nil, err
		}
		if s.writes.Load() == gen {
			s.fill(ctx, parts)
		}
		return parts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Part), nil
}

// Search queries the index and falls back to a store substring match when
// the index query fails. Zero index hits are returned as is.
func (s *Service) Search(ctx context.Context, q string) ([]Part, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("%w: query must not be blank", ErrBadRequest)
	}

	if s.Index != nil {
		parts, err := s.Index.Search(ctx, q, SearchLimit)
		if err == nil {
			if parts == nil {
				parts = []Part{}
			}
			return parts, nil
		}
		s.logger().Warn("search index query failed, using database", zap.Error(err), zap.String("q", q))
	}

	s.Metrics.searchFallback()
	return s.Store.SearchText(ctx, q)
}

// Categories returns the distinct category values in store order.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.Store.Categories(ctx)
}

// CalculateBuild prices the parts matching ids. Unknown ids are ignored.
func (s *Service) CalculateBuild(ctx context.Context, ids []int) (Build, error) {
	b := Build{Total: decimal.Zero, Parts: []Part{}}
	if len(ids) == 0 {
		return b, nil
	}

	parts, err := s.Store.GetMany(ctx, ids)
	if err != nil {
		return Build{}, err
	}

	for _, p := range parts {
		b.Total = b.Total.Add(p.Price)
	}
	b.Parts = append(b.Parts, parts...)
	return b, nil
}

func (s *Service) cached(ctx context.Context) ([]Part, bool) {
	raw, ok, err := s.Cache.Get(ctx, PartsCacheKey)
	if err != nil {
		s.Metrics.cacheLookup("error")
		s.logger().Warn("cache get failed", zap.Error(err), zap.String("key", PartsCacheKey))
		return nil, false
	}
	if !ok || raw == "" {
		s.Metrics.cacheLookup("miss")
		return nil, false
	}

	var parts []Part
	if err := json.Unmarshal([]byte(raw), &parts); err != nil {
		s.Metrics.cacheLookup("error")
		s.logger().Warn("cached parts unreadable", zap.Error(err), zap.String("key", PartsCacheKey))
		return nil, false
	}

	s.Metrics.cacheLookup("hit")
	return parts, true
}

func (s *Service) fill(ctx context.Context, parts []Part) {
	raw, err := json.Marshal(parts)
	if err != nil {
		s.logger().Warn("encode parts snapshot", zap.Error(err))
		return
	}

	if err := s.Cache.Set(ctx, PartsCacheKey, string(raw), s.ttl()); err != nil {
		s.Metrics.sideEffectFailed("cache")
		s.logger().Warn("cache set failed", zap.Error(err), zap.String("key", PartsCacheKey))
	}
}

// invalidate drops the snapshot and detaches reads from any load that
// started before the write.
func (s *Service) invalidate(ctx context.Context) {
	s.writes.Add(1)
	s.loads.Forget(PartsCacheKey)

	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, PartsCacheKey); err != nil {
		s.Metrics.sideEffectFailed("cache")
		s.logger().Warn("cache invalidation failed", zap.Error(err), zap.String("key", PartsCacheKey))
	}
}

func (s *Service) sideEffect(target string, id int, err error) {
	if err == nil {
		return
	}
	s.Metrics.sideEffectFailed(target)
	s.logger().Warn("best-effort write failed",
		zap.String("target", target),
		zap.Int("part_id", id),
		zap.Error(err),
	)
}

func (s *Service) ttl() time.Duration {
	if s.CacheTTL > 0 {
		return s.CacheTTL
	}
	return DefaultCacheTTL
}

func (s *Service) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}
