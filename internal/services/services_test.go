package services

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"emissions-platform/internal/models"
	"emissions-platform/internal/repository"
	"emissions-platform/pkg/logging"
	"emissions-platform/pkg/metrics"
)

// fakeFetcher serves documents from memory; a missing URI is a fetch failure
type fakeFetcher struct {
	docs map[string]string
}

func (f *fakeFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	doc, ok := f.docs[uri]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return []byte(doc), nil
}

// failingRepo wraps a memory repository and fails the chosen operations
type failingRepo struct {
	*repository.MemoryRepository
	failList    bool
	failReplace bool
}

var errStorage = errors.New("storage unavailable")

func (r *failingRepo) ListEntities(ctx context.Context) ([]models.EntityRecord, error) {
	if r.failList {
		return nil, errStorage
	}
	return r.MemoryRepository.ListEntities(ctx)
}

func (r *failingRepo) ReplaceEntities(ctx context.Context, records []*models.EntityRecord) error {
	if r.failReplace {
		return errStorage
	}
	return r.MemoryRepository.ReplaceEntities(ctx, records)
}

func testDeps() (*logging.StructuredLogger, *metrics.Collector) {
	return logging.NewNopLogger(), metrics.NewCollector("test", prometheus.NewRegistry())
}

const entityDoc = `[
	{"sno": 1, "mine_name": "Jharia", "fuel_emission": 1000, "electricity_emission": 500, "methane_emission": 20, "total_emission": 1500},
	{"sno": 2, "mine_name": "Gevra", "fuel_emission": 2000, "electricity_emission": 1500, "methane_emission": 30, "total_emission": 9999},
	{"sno": 3, "mine_name": "", "fuel_emission": 1, "electricity_emission": 1, "methane_emission": 1},
	{"sno": 4, "mine_name": "Jharia", "fuel_emission": 10, "electricity_emission": 5, "methane_emission": 2}
]`

const yearDoc = `{
	"2021": {"fuel emission": 300, "electricity emission": 200, "total emission": 500, "methane emission (m3)": 40},
	"2019": {"fuel emission": 100, "electricity emission": 100, "total emission": 200, "methane emission (m3)": 20},
	"2020": {"fuel emission": 1500000, "electricity emission": 500000, "total emission": 2000000, "methane emission (m3)": 30}
}`

const predictedDoc = `{"2030": {"fuel emission": 1, "electricity emission": 1, "total emission": 2, "methane emission (m3)": 1}}`
