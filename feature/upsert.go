package feature

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/metrics"
)

// WriteResult reports one replaced category.
type WriteResult struct {
	Category     string `json:"category"`
	Status       string `json:"status"`
	FeatureCount int    `json:"feature_count"`
}

// StatusReplaced is the status of every successful category write.
const StatusReplaced = "replaced"

// CategoryWrite is one category of a batch write.
type CategoryWrite struct {
	Category string
	Data     Data
}

// BatchWriteResult reports a batch write.
type BatchWriteResult struct {
	Results       []WriteResult
	TotalFeatures int
}

// UpsertCategory replaces the data of one category. The stored created_at of an
// existing record is kept, updated_at is set to now. The existing record is read and
// the replacement written in two separate calls; concurrent writers race and the
// last put wins.
func (s *Service) UpsertCategory(ctx context.Context, entity EntityRef, category string, data Data, computeID *string) (WriteResult, error) {
	category, err := s.checkWrite(category, data)
	if err != nil {
		metrics.FlowOutcome("upsert", metrics.OutcomeError)
		return WriteResult{}, err
	}
	res, err := s.upsert(ctx, entity, category, data, computeID)
	if err != nil {
		metrics.FlowOutcome("upsert", metrics.OutcomeError)
		return WriteResult{}, err
	}
	metrics.FlowOutcome("upsert", metrics.OutcomeSuccess)
	return res, nil
}

// UpsertCategories validates every category before writing any, then upserts them in
// order. A category named twice is written once with the last data given for it. A
// storage failure stops the batch; categories already written stay written.
func (s *Service) UpsertCategories(ctx context.Context, entity EntityRef, writes []CategoryWrite, computeID *string) (BatchWriteResult, error) {
	if len(writes) == 0 {
		metrics.FlowOutcome("upsert_batch", metrics.OutcomeError)
		return BatchWriteResult{}, ErrEmptyRequest
	}

	order := make([]string, 0, len(writes))
	latest := make(map[string]Data, len(writes))
	for _, w := range writes {
		category, err := s.checkWrite(w.Category, w.Data)
		if err != nil {
			metrics.FlowOutcome("upsert_batch", metrics.OutcomeError)
			return BatchWriteResult{}, err
		}
		if _, dup := latest[category]; !dup {
			order = append(order, category)
		}
		latest[category] = w.Data
	}

	var out BatchWriteResult
	for _, category := range order {
		res, err := s.upsert(ctx, entity, category, latest[category], computeID)
		if err != nil {
			metrics.FlowOutcome("upsert_batch", metrics.OutcomeError)
			return out, fmt.Errorf("category %s: %w", category, err)
		}
		out.Results = append(out.Results, res)
		out.TotalFeatures += res.FeatureCount
	}
	metrics.FlowOutcome("upsert_batch", metrics.OutcomeSuccess)
	return out, nil
}

func (s *Service) checkWrite(category string, data Data) (string, error) {
	category, err := NormalizeCategory(category)
	if err != nil {
		return "", err
	}
	if err := s.policy.ValidateForWrite(category); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: category %s", ErrEmptyFeatures, category)
	}
	return category, nil
}

func (s *Service) upsert(ctx context.Context, entity EntityRef, category string, data Data, computeID *string) (WriteResult, error) {
	now := s.now()

	existing, err := s.gateway.GetRecord(ctx, entity, category)
	var merr *MarshalError
	switch {
	case errors.Is(err, ErrNotFound):
		existing = nil
	case errors.As(err, &merr):
		s.logger.Warn("existing record unreadable, replacing it",
			"entity", entity.String(), "category", category, "error", err)
		existing = nil
	case err != nil:
		s.logger.Error("read before upsert failed", "entity", entity.String(), "category", category, "error", err)
		return WriteResult{}, err
	}

	rec := &Record{
		Entity:   entity,
		Category: category,
		Data:     data,
		Meta: Meta{
			CreatedAt: createdAt(existing, now),
			UpdatedAt: now,
			ComputeID: computeID,
		},
	}
	if err := s.gateway.PutRecord(ctx, rec); err != nil {
		s.logger.Error("put record failed", "entity", entity.String(), "category", category, "error", err)
		return WriteResult{}, err
	}

	s.logger.Debug("category replaced", "entity", entity.String(), "category", category, "features", len(data))
	s.notify(ctx, EventFor(rec))
	return WriteResult{Category: category, Status: StatusReplaced, FeatureCount: len(data)}, nil
}

// createdAt keeps the stored creation time when it is well formed, meaning set and
// not after now.
func createdAt(existing *Record, now time.Time) time.Time {
	if existing == nil {
		return now
	}
	c := existing.Meta.CreatedAt
	if c.IsZero() || c.After(now) {
		return now
	}
	return c
}
