package feature

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// EntityKind names the identifier space of an entity. The kind string is also the
// partition key attribute of that kind's table.
type EntityKind string

const (
	// Primary entities are users, keyed by bright_uid.
	Primary EntityKind = "bright_uid"

	// Secondary entities are accounts, keyed by account_id.
	Secondary EntityKind = "account_id"
)

// Kinds lists every supported entity kind.
var Kinds = []EntityKind{Primary, Secondary}

const (
	maxEntityIDLen = 255
	maxCategoryLen = 100
)

// ParseEntityKind accepts "bright_uid" or "account_id".
func ParseEntityKind(s string) (EntityKind, error) {
	switch EntityKind(strings.TrimSpace(s)) {
	case Primary:
		return Primary, nil
	case Secondary:
		return Secondary, nil
	}
	return "", fmt.Errorf("%w: %q, must be one of bright_uid, account_id", ErrInvalidEntityKind, s)
}

// KeyAttr returns the partition key attribute name for the kind.
func (k EntityKind) KeyAttr() string { return string(k) }

func (k EntityKind) valid() bool { return k == Primary || k == Secondary }

// EntityRef identifies an entity.
type EntityRef struct {
	Kind EntityKind
	ID   string
}

// NewEntityRef trims id and rejects it when empty. Identifiers longer than 255
// characters are truncated without error.
func NewEntityRef(kind EntityKind, id string) (EntityRef, error) {
	if !kind.valid() {
		return EntityRef{}, fmt.Errorf("%w: %q", ErrInvalidEntityKind, string(kind))
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return EntityRef{}, fmt.Errorf("%w: cannot be empty", ErrInvalidEntity)
	}
	return EntityRef{Kind: kind, ID: truncate(id, maxEntityIDLen)}, nil
}

// String returns the type-qualified reference (e.g. "bright_uid#u1").
func (e EntityRef) String() string { return string(e.Kind) + "#" + e.ID }

// key returns the table key for the entity and category.
func (e EntityRef) key(category string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		e.Kind.KeyAttr(): &types.AttributeValueMemberS{Value: e.ID},
		attrCategory:     &types.AttributeValueMemberS{Value: category},
	}
}

// NormalizeCategory trims s and rejects it when empty or longer than 100 characters.
func NormalizeCategory(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: cannot be empty", ErrInvalidCategory)
	}
	if utf8.RuneCountInString(s) > maxCategoryLen {
		return "", fmt.Errorf("%w: %q is too long (max %d characters)", ErrInvalidCategory, s, maxCategoryLen)
	}
	return s, nil
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Meta is the bookkeeping stored next to the feature data.
type Meta struct {
	CreatedAt time.Time
	UpdatedAt time.Time

	// ComputeID identifies the producing computation, if the writer supplied one.
	ComputeID *string
}

// Record is the stored unit: the features of one entity in one category.
type Record struct {
	Entity   EntityRef
	Category string
	Data     Data
	Meta     Meta

	// ExpiresAt is set when the item carries a ttl attribute.
	ExpiresAt *time.Time
}

// FeatureCount returns the number of features in the record.
func (r *Record) FeatureCount() int { return len(r.Data) }

// Select returns a copy of r holding only the named features, or all of them when
// names is nil.
func (r *Record) Select(names []string) *Record {
	out := *r
	if names != nil {
		out.Data = r.Data.Filter(names)
	}
	return &out
}

type recordJSON struct {
	Category string   `json:"category"`
	Features features `json:"features"`
}

type features struct {
	Data Data     `json:"data"`
	Meta metaJSON `json:"meta"`
}

type metaJSON struct {
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	ComputeID *string `json:"compute_id"`
}

// MarshalJSON renders the record in its client facing shape:
//
//	{"bright_uid": "u1", "category": "c1", "features": {"data": {...}, "meta": {...}}}
func (r *Record) MarshalJSON() ([]byte, error) {
	data := r.Data
	if data == nil {
		data = Data{}
	}
	body, err := json.Marshal(recordJSON{
		Category: r.Category,
		Features: features{
			Data: data,
			Meta: metaJSON{
				CreatedAt: FormatTimestamp(r.Meta.CreatedAt),
				UpdatedAt: FormatTimestamp(r.Meta.UpdatedAt),
				ComputeID: r.Meta.ComputeID,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	id, err := json.Marshal(r.Entity.ID)
	if err != nil {
		return nil, err
	}
	// Prepend the entity key as the first member.
	out := make([]byte, 0, len(body)+len(id)+len(r.Entity.Kind)+4)
	out = append(out, '{', '"')
	out = append(out, string(r.Entity.Kind)...)
	out = append(out, '"', ':')
	out = append(out, id...)
	out = append(out, ',')
	out = append(out, body[1:]...)
	return out, nil
}
