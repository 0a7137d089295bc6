package service

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/produckai/voc-engine/internal/models"
	"github.com/produckai/voc-engine/internal/vocerrors"
)

// CustomerInfo is the directory answer for one customer name.
type CustomerInfo struct {
	Segment string
	ACV     float64
}

// CustomerDirectory resolves customer names to segment and contract data.
// Unknown names resolve to segment "unknown" with ACV 0, never an error.
type CustomerDirectory interface {
	Lookup(ctx context.Context, name string) (CustomerInfo, error)
}

// customerGetter is the repository capability the directory needs.
type customerGetter interface {
	GetByName(ctx context.Context, name string) (*models.Customer, error)
}

// DirectoryService is a Postgres-backed CustomerDirectory with an LRU cache in
// front. Customer metadata changes rarely; a small cache absorbs the repeated
// lookups a scoring run makes.
type DirectoryService struct {
	customers customerGetter
	cache     *lru.Cache[string, CustomerInfo]
}

// NewDirectoryService creates a directory service with the given cache size.
func NewDirectoryService(customers customerGetter, cacheSize int) (*DirectoryService, error) {
	cache, err := lru.New[string, CustomerInfo](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory cache: %w", err)
	}

	return &DirectoryService{customers: customers, cache: cache}, nil
}

// Lookup resolves a customer name. Directory misses are an answer, not an
// error; only infrastructure failures propagate.
func (s *DirectoryService) Lookup(ctx context.Context, name string) (CustomerInfo, error) {
	if name == "" {
		return CustomerInfo{Segment: models.SegmentUnknown}, nil
	}

	if info, ok := s.cache.Get(name); ok {
		return info, nil
	}

	customer, err := s.customers.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, vocerrors.ErrNotFound) {
			info := CustomerInfo{Segment: models.SegmentUnknown}
			s.cache.Add(name, info)
			return info, nil
		}
		return CustomerInfo{}, fmt.Errorf("customer lookup: %w", err)
	}

	info := CustomerInfo{Segment: customer.Segment, ACV: customer.ACV}
	s.cache.Add(name, info)

	return info, nil
}

var _ CustomerDirectory = (*DirectoryService)(nil)
