package feature_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
)

func TestPolicy_Validate(t *testing.T) {
	p := feature.NewPolicy([]string{"c1", " c2 ", ""}, []string{"c1"})

	if err := p.ValidateForRead("c2"); err != nil {
		t.Errorf("expected c2 readable, got %v", err)
	}
	if err := p.ValidateForWrite("c1"); err != nil {
		t.Errorf("expected c1 writable, got %v", err)
	}

	err := p.ValidateForWrite("c2")
	if !errors.Is(err, feature.ErrCategoryNotAllowed) {
		t.Fatalf("expected ErrCategoryNotAllowed, got %v", err)
	}
	var cerr *feature.CategoryError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CategoryError, got %T", err)
	}
	if cerr.Op != "write" || len(cerr.Allowed) != 1 || cerr.Allowed[0] != "c1" {
		t.Errorf("unexpected category error %+v", cerr)
	}

	err = p.ValidateForRead("c3")
	if !strings.Contains(err.Error(), "[c1, c2]") {
		t.Errorf("expected sorted allowed list in message, got %q", err.Error())
	}
}

func TestPolicy_EmptyAllowsNothing(t *testing.T) {
	p := feature.NewPolicy(nil, nil)
	if err := p.ValidateForRead("c1"); !errors.Is(err, feature.ErrCategoryNotAllowed) {
		t.Errorf("expected read rejected, got %v", err)
	}
	if err := p.ValidateForWrite("c1"); !errors.Is(err, feature.ErrCategoryNotAllowed) {
		t.Errorf("expected write rejected, got %v", err)
	}
}

func TestPolicy_ClassifyMapping(t *testing.T) {
	p := feature.NewPolicy([]string{"a", "b"}, nil)
	sel := feature.Selection{
		"a": {Wildcard: true},
		"z": {Names: []string{"x"}},
		"b": {Names: []string{"y"}},
		"m": {Wildcard: true},
	}

	allowed, rejected := p.ClassifyMapping(sel)
	if len(allowed) != 2 {
		t.Errorf("expected 2 allowed categories, got %v", allowed)
	}
	if !allowed["a"].Wildcard || allowed["b"].Names[0] != "y" {
		t.Errorf("expected feature sets carried over, got %v", allowed)
	}
	if len(rejected) != 2 || rejected[0] != "m" || rejected[1] != "z" {
		t.Errorf("expected sorted rejected [m z], got %v", rejected)
	}
}
