package repository

import (
	"context"
	"sync"

	"emissions-platform/internal/engine"
	"emissions-platform/internal/models"
)

// MemoryRepository keeps the datasets in process memory. It backs the
// memory storage mode and the service tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	entities []models.EntityRecord
	years    map[models.YearDatasetKind][]models.YearRecord
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		years: make(map[models.YearDatasetKind][]models.YearRecord),
	}
}

// ReplaceEntities swaps the entity dataset
func (m *MemoryRepository) ReplaceEntities(_ context.Context, records []*models.EntityRecord) error {
	entities := make([]models.EntityRecord, len(records))
	for i, rec := range records {
		entities[i] = *rec
	}

	m.mu.Lock()
	m.entities = entities
	m.mu.Unlock()
	return nil
}

// ListEntities returns a copy of the entity dataset in ingest order
func (m *MemoryRepository) ListEntities(_ context.Context) ([]models.EntityRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.EntityRecord, len(m.entities))
	copy(out, m.entities)
	return out, nil
}

// ListEntityNames returns distinct entity names in first-seen order
func (m *MemoryRepository) ListEntityNames(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return engine.EntityNames(m.entities), nil
}

// ReplaceYearRecords swaps one year dataset
func (m *MemoryRepository) ReplaceYearRecords(_ context.Context, kind models.YearDatasetKind, records []models.YearRecord) error {
	if err := validKind(kind); err != nil {
		return err
	}

	years := make([]models.YearRecord, len(records))
	copy(years, records)

	m.mu.Lock()
	m.years[kind] = years
	m.mu.Unlock()
	return nil
}

// ListYearRecords returns a copy of one year dataset in ingest order
func (m *MemoryRepository) ListYearRecords(_ context.Context, kind models.YearDatasetKind) ([]models.YearRecord, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.YearRecord, len(m.years[kind]))
	copy(out, m.years[kind])
	return out, nil
}

// HealthCheck always succeeds
func (m *MemoryRepository) HealthCheck(_ context.Context) error {
	return nil
}
