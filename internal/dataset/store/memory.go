package store

import (
	"context"
	"sync"

	"github.com/yashpatelijc/text-to-csv/internal/dataset/entity"
	"github.com/yashpatelijc/text-to-csv/internal/dataset/usecase"
	"github.com/yashpatelijc/text-to-csv/internal/pkg/pkgerror"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	datasets map[string]*datasetRecord
}

type datasetRecord struct {
	mu        sync.RWMutex
	meta      entity.DatasetMeta
	cleaned   entity.Table
	filtered  entity.Table
	anomalies []entity.Anomaly
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		datasets: make(map[string]*datasetRecord),
	}
}

func (s *InMemoryStore) CreateDataset(ctx context.Context, meta entity.DatasetMeta) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.datasets[meta.ID]; exists {
		return pkgerror.NewBusiness("dataset already exists", pkgerror.CodeConflict)
	}

	s.datasets[meta.ID] = &datasetRecord{meta: meta}

	return nil
}

func (s *InMemoryStore) UpdateMeta(ctx context.Context, id string, fn func(meta *entity.DatasetMeta)) error {
	rec, err := s.get(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	fn(&rec.meta)

	return nil
}

func (s *InMemoryStore) SaveResult(ctx context.Context, id string, result entity.Result) error {
	rec, err := s.get(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.cleaned = result.Cleaned
	rec.filtered = result.Filtered
	rec.anomalies = flatten(result.Diagnostics)

	return nil
}

func (s *InMemoryStore) SaveFiltered(ctx context.Context, id string, filtered entity.Table) error {
	rec, err := s.get(id)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	rec.filtered = filtered

	return nil
}

func (s *InMemoryStore) GetMeta(ctx context.Context, id string) (entity.DatasetMeta, error) {
	rec, err := s.get(id)
	if err != nil {
		return entity.DatasetMeta{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	return rec.meta, nil
}

// GetTable returns the stored table as is; tables are never mutated after
// they are saved, so callers share the rows.
func (s *InMemoryStore) GetTable(ctx context.Context, id string, variant entity.Variant) (entity.Table, entity.DatasetMeta, error) {
	rec, err := s.get(id)
	if err != nil {
		return entity.Table{}, entity.DatasetMeta{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	if variant == entity.VariantFiltered {
		return rec.filtered, rec.meta, nil
	}
	return rec.cleaned, rec.meta, nil
}

func (s *InMemoryStore) ListAnomalies(ctx context.Context, id string, filter usecase.AnomalyFilter, page, pageSize int) ([]entity.Anomaly, int, entity.DatasetMeta, error) {
	rec, err := s.get(id)
	if err != nil {
		return nil, 0, entity.DatasetMeta{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	total := 0
	start := (page - 1) * pageSize
	end := start + pageSize
	items := make([]entity.Anomaly, 0, pageSize)

	for _, a := range rec.anomalies {
		if !filter.Matches(a) {
			continue
		}

		if total >= start && total < end {
			items = append(items, a)
		}
		total++
	}

	return items, total, rec.meta, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

func (s *InMemoryStore) get(id string) (*datasetRecord, error) {
	s.mu.RLock()
	rec, ok := s.datasets[id]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerror.ErrNotFound
	}

	return rec, nil
}

func flatten(diags []entity.Diagnostic) []entity.Anomaly {
	n := 0
	for _, d := range diags {
		n += len(d.Rows)
	}

	out := make([]entity.Anomaly, 0, n)
	for _, d := range diags {
		out = append(out, d.Rows...)
	}
	return out
}
