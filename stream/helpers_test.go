package stream

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
)

// --- getStringAttr Tests ---

func TestGetStringAttr(t *testing.T) {
	tests := []struct {
		name  string
		image map[string]events.DynamoDBAttributeValue
		want  string
	}{
		{"existing", map[string]events.DynamoDBAttributeValue{"name": events.NewStringAttribute("v")}, "v"},
		{"missing", map[string]events.DynamoDBAttributeValue{"other": events.NewStringAttribute("v")}, ""},
		{"nil image", nil, ""},
		{"number", map[string]events.DynamoDBAttributeValue{"name": events.NewNumberAttribute("1")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getStringAttr(tt.image, "name"); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// --- getMetaAttr Tests ---

func TestGetMetaAttr(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"features": events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
			"meta": events.NewMapAttribute(map[string]events.DynamoDBAttributeValue{
				"updated_at": events.NewStringAttribute("2025-01-01T00:00:00.000000Z"),
			}),
		}),
	}
	if got := getMetaAttr(image, "updated_at"); got != "2025-01-01T00:00:00.000000Z" {
		t.Errorf("unexpected updated_at %q", got)
	}
	if got := getMetaAttr(image, "created_at"); got != "" {
		t.Errorf("expected empty created_at, got %q", got)
	}

	flat := map[string]events.DynamoDBAttributeValue{"features": events.NewStringAttribute("x")}
	if got := getMetaAttr(flat, "updated_at"); got != "" {
		t.Errorf("expected empty for non-map features, got %q", got)
	}
}

// --- kindOf Tests ---

func TestKindOf(t *testing.T) {
	tests := []struct {
		name   string
		image  map[string]events.DynamoDBAttributeValue
		want   feature.EntityKind
		wantOK bool
	}{
		{"primary", map[string]events.DynamoDBAttributeValue{"bright_uid": events.NewStringAttribute("u1")}, feature.Primary, true},
		{"secondary", map[string]events.DynamoDBAttributeValue{"account_id": events.NewStringAttribute("a1")}, feature.Secondary, true},
		{"neither", map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute("x")}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := kindOf(tt.image)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("expected %q/%v, got %q/%v", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}
