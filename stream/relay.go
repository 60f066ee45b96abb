// Package stream provides DynamoDB Streams handlers that announce feature writes.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
)

// Handler relays feature table changes to a Notifier.
type Handler struct {
	notifier feature.Notifier
	logger   *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(notifier feature.Notifier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		notifier: notifier,
		logger:   logger,
	}
}

// HandleFeatureStream publishes an availability event for every inserted or modified
// feature record. This function is designed to be used as an AWS Lambda handler.
func (h *Handler) HandleFeatureStream(ctx context.Context, event events.DynamoDBEvent) error {
	for _, record := range event.Records {
		if err := h.processRecord(ctx, record); err != nil {
			h.logger.Error("failed to process record",
				"eventID", record.EventID,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// processRecord processes a single DynamoDB stream record.
func (h *Handler) processRecord(ctx context.Context, record events.DynamoDBEventRecord) error {
	switch events.DynamoDBOperationType(record.EventName) {
	case events.DynamoDBOperationTypeInsert, events.DynamoDBOperationTypeModify:
	default:
		return nil
	}

	image := record.Change.NewImage
	if len(image) == 0 {
		h.logger.Warn("stream record without new image, check the stream view type",
			"eventID", record.EventID)
		return nil
	}

	// A MODIFY that leaves updated_at untouched (e.g. a ttl change) wrote no features.
	if record.EventName == string(events.DynamoDBOperationTypeModify) {
		before := getMetaAttr(record.Change.OldImage, "updated_at")
		if before != "" && before == getMetaAttr(image, "updated_at") {
			return nil
		}
	}

	kind, ok := kindOf(image)
	if !ok {
		h.logger.Warn("stream record without entity key", "eventID", record.EventID)
		return nil
	}

	item, err := ConvertImage(image)
	if err != nil {
		h.logger.Warn("skipping unconvertible record", "eventID", record.EventID, "error", err)
		return nil
	}
	rec, err := feature.DecodeItem(kind, item)
	var merr *feature.MarshalError
	if errors.As(err, &merr) {
		h.logger.Warn("skipping undecodable record", "eventID", record.EventID, "error", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	if err := h.notifier.Publish(ctx, feature.EventFor(rec)); err != nil {
		return fmt.Errorf("publish %s/%s: %w", rec.Entity, rec.Category, err)
	}
	h.logger.Info("feature event relayed",
		"entity", rec.Entity.String(),
		"category", rec.Category,
		"features", rec.FeatureCount(),
	)
	return nil
}

// kindOf identifies the entity kind from the partition key present in the image.
func kindOf(image map[string]events.DynamoDBAttributeValue) (feature.EntityKind, bool) {
	for _, kind := range feature.Kinds {
		if getStringAttr(image, kind.KeyAttr()) != "" {
			return kind, true
		}
	}
	return "", false
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getMetaAttr extracts a string from the features.meta sub-document of an image.
func getMetaAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	features, ok := image["features"]
	if !ok || features.DataType() != events.DataTypeMap {
		return ""
	}
	meta, ok := features.Map()["meta"]
	if !ok || meta.DataType() != events.DataTypeMap {
		return ""
	}
	return getStringAttr(meta.Map(), key)
}

// ConvertImage converts a DynamoDB stream image to SDK attribute values.
func ConvertImage(image map[string]events.DynamoDBAttributeValue) (map[string]types.AttributeValue, error) {
	result := make(map[string]types.AttributeValue, len(image))
	for k, v := range image {
		av, err := convertValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		result[k] = av
	}
	return result, nil
}

func convertValue(v events.DynamoDBAttributeValue) (types.AttributeValue, error) {
	switch v.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: v.String()}, nil
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: v.Number()}, nil
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: v.Binary()}, nil
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: v.Boolean()}, nil
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: v.StringSet()}, nil
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: v.NumberSet()}, nil
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: v.BinarySet()}, nil
	case events.DataTypeMap:
		m, err := ConvertImage(v.Map())
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case events.DataTypeList:
		list := v.List()
		l := make([]types.AttributeValue, len(list))
		for i, item := range list {
			av, err := convertValue(item)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	}
	return nil, fmt.Errorf("unsupported stream data type %d", v.DataType())
}
