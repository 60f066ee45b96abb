package feature

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/metrics"
)

// Wildcard selects every feature of a category.
const Wildcard = "*"

// FeatureSet is the features requested from one category.
type FeatureSet struct {
	// Wildcard requests every feature. Names is ignored when set.
	Wildcard bool

	// Names lists the requested features without duplicates, in request order.
	Names []string
}

// names returns the filter to apply, nil meaning all features.
func (f FeatureSet) names() []string {
	if f.Wildcard {
		return nil
	}
	return f.Names
}

// Selection maps categories to the features requested from them.
type Selection map[string]FeatureSet

// Categories returns the selected categories in sorted order.
func (s Selection) Categories() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ParseFeatureList parses "category:feature" and "category:*" tokens. The token is
// split on its first colon, so feature names may contain colons. A wildcard for a
// category overrides named features of that category wherever they appear.
func ParseFeatureList(tokens []string) (Selection, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptySelection
	}
	sel := make(Selection)
	seen := make(map[string]map[string]struct{})
	for _, token := range tokens {
		cat, name, ok := strings.Cut(token, ":")
		cat = strings.TrimSpace(cat)
		name = strings.TrimSpace(name)
		if !ok || cat == "" || name == "" {
			return nil, fmt.Errorf("%w: %q, expected 'category:feature' or 'category:*'", ErrInvalidFeatureToken, token)
		}
		cat, err := NormalizeCategory(cat)
		if err != nil {
			return nil, err
		}

		set := sel[cat]
		if name == Wildcard {
			sel[cat] = FeatureSet{Wildcard: true}
			continue
		}
		if set.Wildcard {
			continue
		}
		if seen[cat] == nil {
			seen[cat] = make(map[string]struct{})
		}
		if _, dup := seen[cat][name]; !dup {
			seen[cat][name] = struct{}{}
			set.Names = append(set.Names, name)
		}
		sel[cat] = set
	}
	return sel, nil
}

// MultiResult is the outcome of a multi-category read.
type MultiResult struct {
	Entity EntityRef

	// Items holds one filtered record per category that was found.
	Items map[string]*Record

	// Unavailable lists categories that were missing, followed by categories the read
	// allow-list rejected.
	Unavailable []string
}

// GetSingleCategory returns the full record of one category.
func (s *Service) GetSingleCategory(ctx context.Context, entity EntityRef, category string) (*Record, error) {
	category, err := NormalizeCategory(category)
	if err != nil {
		return nil, err
	}
	if err := s.policy.ValidateForRead(category); err != nil {
		metrics.FlowOutcome("get_single", metrics.OutcomeError)
		return nil, err
	}
	rec, err := s.gateway.GetRecord(ctx, entity, category)
	switch {
	case errors.Is(err, ErrNotFound):
		metrics.FlowOutcome("get_single", metrics.OutcomeNotFound)
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, entity, category)
	case err != nil:
		metrics.FlowOutcome("get_single", metrics.OutcomeError)
		s.logger.Error("get category failed", "entity", entity.String(), "category", category, "error", err)
		return nil, err
	}
	metrics.FlowOutcome("get_single", metrics.OutcomeFound)
	return rec, nil
}

// GetMultipleCategories reads every category in sel. Rejected categories cause no
// storage call. Missing categories are reported as unavailable rather than failing
// the read; the read fails with ErrNothingFound only when no category was found.
// Storage errors abort the read.
func (s *Service) GetMultipleCategories(ctx context.Context, entity EntityRef, sel Selection) (*MultiResult, error) {
	if len(sel) == 0 {
		return nil, ErrEmptySelection
	}
	allowed, rejected := s.policy.ClassifyMapping(sel)
	if len(rejected) > 0 {
		s.logger.Warn("categories rejected for read", "entity", entity.String(), "categories", rejected)
	}

	result := &MultiResult{
		Entity: entity,
		Items:  make(map[string]*Record, len(allowed)),
	}
	for _, category := range allowed.Categories() {
		rec, err := s.gateway.GetRecord(ctx, entity, category)
		if errors.Is(err, ErrNotFound) {
			metrics.CategoryOutcome("get_multi", category, metrics.OutcomeNotFound)
			result.Unavailable = append(result.Unavailable, category)
			continue
		}
		if err != nil {
			metrics.FlowOutcome("get_multi", metrics.OutcomeError)
			s.logger.Error("get category failed", "entity", entity.String(), "category", category, "error", err)
			return nil, err
		}
		metrics.CategoryOutcome("get_multi", category, metrics.OutcomeFound)
		result.Items[category] = rec.Select(allowed[category].names())
	}
	result.Unavailable = append(result.Unavailable, rejected...)

	if len(result.Items) == 0 {
		metrics.FlowOutcome("get_multi", metrics.OutcomeNotFound)
		return nil, fmt.Errorf("%w: %s", ErrNothingFound, entity)
	}
	if len(result.Unavailable) > 0 {
		metrics.FlowOutcome("get_multi", metrics.OutcomePartial)
	} else {
		metrics.FlowOutcome("get_multi", metrics.OutcomeFound)
	}
	return result, nil
}
