package feature

import (
	"sort"
	"strings"
)

// Policy holds the read and write category allow-lists. It is immutable after
// construction and safe for concurrent use.
type Policy struct {
	read  map[string]struct{}
	write map[string]struct{}
}

// NewPolicy builds a Policy from the two allow-lists. Entries are trimmed and empty
// entries dropped. An empty list allows nothing.
func NewPolicy(read, write []string) *Policy {
	return &Policy{read: toSet(read), write: toSet(write)}
}

func toSet(list []string) map[string]struct{} {
	set := make(map[string]struct{}, len(list))
	for _, c := range list {
		if c = strings.TrimSpace(c); c != "" {
			set[c] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// AllowedRead returns the readable categories in sorted order.
func (p *Policy) AllowedRead() []string { return sortedKeys(p.read) }

// AllowedWrite returns the writable categories in sorted order.
func (p *Policy) AllowedWrite() []string { return sortedKeys(p.write) }

// CanRead reports whether category is in the read allow-list.
func (p *Policy) CanRead(category string) bool {
	_, ok := p.read[category]
	return ok
}

// CanWrite reports whether category is in the write allow-list.
func (p *Policy) CanWrite(category string) bool {
	_, ok := p.write[category]
	return ok
}

// ValidateForRead returns a *CategoryError unless category may be read.
func (p *Policy) ValidateForRead(category string) error {
	if p.CanRead(category) {
		return nil
	}
	return &CategoryError{Category: category, Op: "read", Allowed: p.AllowedRead()}
}

// ValidateForWrite returns a *CategoryError unless category may be written.
func (p *Policy) ValidateForWrite(category string) error {
	if p.CanWrite(category) {
		return nil
	}
	return &CategoryError{Category: category, Op: "write", Allowed: p.AllowedWrite()}
}

// ClassifyMapping splits a selection into the readable part and the sorted list of
// categories the read allow-list rejects.
func (p *Policy) ClassifyMapping(sel Selection) (Selection, []string) {
	allowed := make(Selection, len(sel))
	var rejected []string
	for category, set := range sel {
		if p.CanRead(category) {
			allowed[category] = set
		} else {
			rejected = append(rejected, category)
		}
	}
	sort.Strings(rejected)
	return allowed, rejected
}
