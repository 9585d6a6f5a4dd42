package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/agrostack/milletlink/internal/market/repository"
	"github.com/redis/go-redis/v9"
)

const traceCacheTTL = 10 * time.Minute

// TraceabilityService serves the public provenance lookups. Records are
// immutable once written, so lookups are cached read-through in redis.
type TraceabilityService struct {
	repo *repository.TraceabilityRepository
	rdb  *redis.Client
}

func NewTraceabilityService(repo *repository.TraceabilityRepository, rdb *redis.Client) *TraceabilityService {
	return &TraceabilityService{repo: repo, rdb: rdb}
}

// TraceabilityView is the public provenance aggregate: the record itself plus
// the marketplace listing it fed, when one exists.
type TraceabilityView struct {
	Record  *repository.TraceabilityDetail `json:"record"`
	Product *repository.LinkedProduct      `json:"product,omitempty"`
}

// GetByID looks up a record by primary key.
func (s *TraceabilityService) GetByID(ctx context.Context, id string) (*TraceabilityView, error) {
	return s.cached(ctx, "trace:id:"+id, func() (*repository.TraceabilityDetail, error) {
		return s.repo.FindByID(ctx, id)
	})
}

// Search looks up a record by its human-facing code, case-insensitively.
func (s *TraceabilityService) Search(ctx context.Context, code string) (*TraceabilityView, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return s.cached(ctx, "trace:code:"+code, func() (*repository.TraceabilityDetail, error) {
		return s.repo.FindByCode(ctx, code)
	})
}

func (s *TraceabilityService) ListAll(ctx context.Context) ([]repository.ListRow, error) {
	return s.repo.ListAll(ctx)
}

// cached wraps a detail lookup with a redis read-through. A nil or unreachable
// redis degrades to the store without failing the request.
func (s *TraceabilityService) cached(ctx context.Context, key string, load func() (*repository.TraceabilityDetail, error)) (*TraceabilityView, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var view TraceabilityView
			if json.Unmarshal(raw, &view) == nil {
				return &view, nil
			}
		}
	}

	record, err := load()
	if err != nil {
		return nil, err
	}
	// Not every traced supply has been listed yet.
	product, err := s.repo.FindLinkedProduct(ctx, record.SupplyID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	view := &TraceabilityView{Record: record, Product: product}

	if s.rdb != nil {
		if raw, err := json.Marshal(view); err == nil {
			s.rdb.Set(ctx, key, raw, traceCacheTTL)
		}
	}
	return view, nil
}
