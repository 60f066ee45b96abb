package feature

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	attrCategory = "category"
	attrFeatures = "features"
	attrData     = "data"
	attrMeta     = "meta"
	attrTTL      = "ttl"

	// attrLegacyMeta is where some older items keep their meta sub-document.
	attrLegacyMeta = "metadata"
)

// metaItem is the stored form of Meta.
type metaItem struct {
	CreatedAt string  `dynamodbav:"created_at"`
	UpdatedAt string  `dynamodbav:"updated_at"`
	ComputeID *string `dynamodbav:"compute_id"`
}

// EncodeItem builds the full DynamoDB item for r.
func EncodeItem(r *Record) (map[string]types.AttributeValue, error) {
	data, err := MarshalData(r.Data)
	if err != nil {
		return nil, err
	}
	meta, err := attributevalue.MarshalMap(metaItem{
		CreatedAt: FormatTimestamp(r.Meta.CreatedAt),
		UpdatedAt: FormatTimestamp(r.Meta.UpdatedAt),
		ComputeID: r.Meta.ComputeID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal meta: %w", err)
	}

	item := r.Entity.key(r.Category)
	item[attrFeatures] = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
		attrData: &types.AttributeValueMemberM{Value: data},
		attrMeta: &types.AttributeValueMemberM{Value: meta},
	}}
	if r.ExpiresAt != nil {
		item[attrTTL] = &types.AttributeValueMemberN{Value: strconv.FormatInt(r.ExpiresAt.Unix(), 10)}
	}
	return item, nil
}

// DecodeItem reads a stored item of the given kind back into a Record. Feature data
// must decode cleanly; meta is read leniently and unparseable timestamps are left zero.
func DecodeItem(kind EntityKind, item map[string]types.AttributeValue) (*Record, error) {
	id, ok := item[kind.KeyAttr()].(*types.AttributeValueMemberS)
	if !ok {
		return nil, &MarshalError{Decode: true, Path: kind.KeyAttr(), Reason: "missing partition key"}
	}
	category, ok := item[attrCategory].(*types.AttributeValueMemberS)
	if !ok {
		return nil, &MarshalError{Decode: true, Path: attrCategory, Reason: "missing sort key"}
	}

	r := &Record{
		Entity:   EntityRef{Kind: kind, ID: id.Value},
		Category: category.Value,
		Data:     Data{},
	}

	if av, exists := item[attrFeatures]; exists {
		features, ok := av.(*types.AttributeValueMemberM)
		if !ok {
			return nil, &MarshalError{Decode: true, Path: attrFeatures, Reason: fmt.Sprintf("expected map, got %T", av)}
		}
		if av, exists := features.Value[attrData]; exists {
			data, ok := av.(*types.AttributeValueMemberM)
			if !ok {
				return nil, &MarshalError{Decode: true, Path: attrFeatures + "." + attrData, Reason: fmt.Sprintf("expected map, got %T", av)}
			}
			d, err := UnmarshalData(data.Value)
			if err != nil {
				return nil, err
			}
			r.Data = d
		}
		metaAttr, exists := features.Value[attrMeta]
		if !exists {
			metaAttr = features.Value[attrLegacyMeta]
		}
		r.Meta = decodeMeta(metaAttr)
	}

	if exp, ok := ttlOf(item); ok {
		t := time.Unix(exp, 0).UTC()
		r.ExpiresAt = &t
	}
	return r, nil
}

// decodeMeta reads each meta field on its own. A field with the wrong type or an
// unparseable value is dropped without affecting the others.
func decodeMeta(av types.AttributeValue) Meta {
	m, ok := av.(*types.AttributeValueMemberM)
	if !ok {
		return Meta{}
	}

	var meta Meta
	if s, ok := metaString(m.Value, "created_at"); ok {
		if t, err := ParseTimestamp(s); err == nil {
			meta.CreatedAt = t
		}
	}
	if s, ok := metaString(m.Value, "updated_at"); ok {
		if t, err := ParseTimestamp(s); err == nil {
			meta.UpdatedAt = t
		}
	}
	if s, ok := metaString(m.Value, "compute_id"); ok && s != "" && s != "None" {
		meta.ComputeID = &s
	}
	return meta
}

func metaString(m map[string]types.AttributeValue, name string) (string, bool) {
	s, ok := m[name].(*types.AttributeValueMemberS)
	if !ok {
		return "", false
	}
	return s.Value, true
}
