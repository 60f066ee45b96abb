package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/fault"
	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/metrics"
)

type readMeta struct {
	Source string `json:"source"`
}

type writeMeta struct {
	Source    string  `json:"source"`
	ComputeID *string `json:"compute_id"`
}

type readRequest struct {
	Meta readMeta `json:"meta"`
	Data struct {
		EntityType  string   `json:"entity_type"`
		EntityValue string   `json:"entity_value"`
		FeatureList []string `json:"feature_list"`
	} `json:"data"`
}

type writeRequest struct {
	Meta writeMeta `json:"meta"`
	Data struct {
		EntityType  string       `json:"entity_type"`
		EntityValue string       `json:"entity_value"`
		Category    string       `json:"category"`
		Features    feature.Data `json:"features"`
	} `json:"data"`
}

type categoryFeatures struct {
	Category string       `json:"category"`
	Features feature.Data `json:"features"`
}

type batchWriteRequest struct {
	Meta writeMeta `json:"meta"`
	Data struct {
		EntityType  string             `json:"entity_type"`
		EntityValue string             `json:"entity_value"`
		FeatureList []categoryFeatures `json:"feature_list"`
	} `json:"data"`
}

type readResponse struct {
	EntityValue string                     `json:"entity_value"`
	EntityType  string                     `json:"entity_type"`
	Items       map[string]*feature.Record `json:"items"`
	Unavailable []string                   `json:"unavailable_feature_categories"`
}

type writeResponse struct {
	Message      string `json:"message"`
	EntityValue  string `json:"entity_value"`
	EntityType   string `json:"entity_type"`
	Category     string `json:"category"`
	FeatureCount int    `json:"feature_count"`
}

type categoryResult struct {
	Status       string `json:"status"`
	FeatureCount int    `json:"feature_count"`
}

type batchWriteResponse struct {
	Message       string                    `json:"message"`
	EntityValue   string                    `json:"entity_value"`
	EntityType    string                    `json:"entity_type"`
	Results       map[string]categoryResult `json:"results"`
	TotalFeatures int                       `json:"total_features"`
}

type healthResponse struct {
	Status             string   `json:"status"`
	DynamoDBConnection bool     `json:"dynamodb_connection"`
	TablesAvailable    []string `json:"tables_available"`
	Timestamp          string   `json:"timestamp"`
}

// entityRef parses an entity type and value from a request.
func entityRef(entityType, entityValue string) (feature.EntityRef, error) {
	kind, err := feature.ParseEntityKind(entityType)
	if err != nil {
		return feature.EntityRef{}, err
	}
	return feature.NewEntityRef(kind, entityValue)
}

// parseBody decodes a JSON body into v.
func parseBody(c *fiber.Ctx, v any) error {
	if len(c.Body()) == 0 {
		return fault.New(fault.Validation, "request body is required")
	}
	if err := c.BodyParser(v); err != nil {
		return fault.Wrap(fault.Validation, err, fmt.Sprintf("invalid request body: %v", err))
	}
	return nil
}

// checkWriteSource rejects writes not issued by the configured source.
func (s *Server) checkWriteSource(meta writeMeta) error {
	if strings.TrimSpace(meta.Source) != s.opts.WriteSource {
		return fault.New(fault.Forbidden, "only %s is allowed for write operations", s.opts.WriteSource)
	}
	return nil
}

func (s *Server) getItem(c *fiber.Ctx) error {
	entityValue, err := pathParam(c, "entity_value")
	if err != nil {
		return err
	}
	category, err := pathParam(c, "category")
	if err != nil {
		return err
	}
	entityType := c.Query("entity_type", string(feature.Primary))
	entity, err := entityRef(entityType, entityValue)
	if err != nil {
		return err
	}

	rec, err := s.features.GetSingleCategory(c.UserContext(), entity, category)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// pathParam returns the decoded route parameter. Routing runs on the raw path so an
// encoded "/" stays inside one segment.
func pathParam(c *fiber.Ctx, name string) (string, error) {
	v, err := url.PathUnescape(c.Params(name))
	if err != nil {
		return "", fault.New(fault.Validation, "invalid %s in path", name)
	}
	return v, nil
}

func (s *Server) getItems(c *fiber.Ctx) error {
	var req readRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Meta.Source) == "" {
		return fault.New(fault.Validation, "meta.source is required")
	}
	entity, err := entityRef(req.Data.EntityType, req.Data.EntityValue)
	if err != nil {
		return err
	}
	sel, err := feature.ParseFeatureList(req.Data.FeatureList)
	if err != nil {
		return err
	}

	res, err := s.features.GetMultipleCategories(c.UserContext(), entity, sel)
	if err != nil {
		return err
	}
	unavailable := res.Unavailable
	if unavailable == nil {
		unavailable = []string{}
	}
	return c.JSON(readResponse{
		EntityValue: entity.ID,
		EntityType:  string(entity.Kind),
		Items:       res.Items,
		Unavailable: unavailable,
	})
}

func (s *Server) putItem(c *fiber.Ctx) error {
	var req writeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := s.checkWriteSource(req.Meta); err != nil {
		return err
	}
	entity, err := entityRef(req.Data.EntityType, req.Data.EntityValue)
	if err != nil {
		return err
	}

	res, err := s.features.UpsertCategory(c.UserContext(), entity, req.Data.Category, req.Data.Features, req.Meta.ComputeID)
	if err != nil {
		return err
	}
	return c.JSON(writeResponse{
		Message:      "Category written successfully (full replace)",
		EntityValue:  entity.ID,
		EntityType:   string(entity.Kind),
		Category:     res.Category,
		FeatureCount: res.FeatureCount,
	})
}

func (s *Server) putItems(c *fiber.Ctx) error {
	var req batchWriteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := s.checkWriteSource(req.Meta); err != nil {
		return err
	}
	entity, err := entityRef(req.Data.EntityType, req.Data.EntityValue)
	if err != nil {
		return err
	}

	writes := make([]feature.CategoryWrite, len(req.Data.FeatureList))
	for i, item := range req.Data.FeatureList {
		writes[i] = feature.CategoryWrite{Category: item.Category, Data: item.Features}
	}
	res, err := s.features.UpsertCategories(c.UserContext(), entity, writes, req.Meta.ComputeID)
	if err != nil {
		return err
	}

	results := make(map[string]categoryResult, len(res.Results))
	for _, r := range res.Results {
		results[r.Category] = categoryResult{Status: r.Status, FeatureCount: r.FeatureCount}
	}
	return c.JSON(batchWriteResponse{
		Message:       "Items written successfully (full replace per category)",
		EntityValue:   entity.ID,
		EntityType:    string(entity.Kind),
		Results:       results,
		TotalFeatures: res.TotalFeatures,
	})
}

// healthCheck answers 200 when both feature tables are active and 503 otherwise.
func (s *Server) healthCheck(c *fiber.Ctx) error {
	resp := healthResponse{
		Status:             "healthy",
		DynamoDBConnection: true,
		TablesAvailable:    []string{},
		Timestamp:          feature.FormatTimestamp(s.now()),
	}
	if s.health == nil {
		return c.JSON(resp)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), s.opts.HealthTimeout)
	defer cancel()
	tables, err := s.health.Ping(ctx)
	if tables != nil {
		resp.TablesAvailable = tables
	}
	if err != nil {
		s.logger.Warn("health check failed", "error", err)
		resp.Status = "unhealthy"
		resp.DynamoDBConnection = false
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

func (s *Server) serveMetrics(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/plain; version=0.0.4; charset=utf-8")
	metrics.WritePrometheus(c)
	return nil
}
