package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/fault"
	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
)

// retryAfterSeconds is sent with every 503 response.
const retryAfterSeconds = 5

type errorBody struct {
	StatusCode int    `json:"status_code"`
	Detail     string `json:"detail"`
	ErrorCode  string `json:"error_code"`
	Timestamp  string `json:"timestamp"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// statusKinds maps the statuses fiber raises on its own to taxonomy kinds.
var statusKinds = map[int]fault.Kind{
	fiber.StatusBadRequest:            fault.Validation,
	fiber.StatusUnprocessableEntity:   fault.Validation,
	fiber.StatusRequestEntityTooLarge: fault.Validation,
	fiber.StatusNotFound:              fault.NotFound,
	fiber.StatusForbidden:             fault.Forbidden,
	fiber.StatusUnauthorized:          fault.Unauthorized,
	fiber.StatusConflict:              fault.Conflict,
	fiber.StatusServiceUnavailable:    fault.ServiceUnavailable,
}

// handleError renders err as the error envelope.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, code, detail := s.describe(err)

	if status == fiber.StatusServiceUnavailable {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds))
	}
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", c.Path(),
			"status", status,
			"error_code", code,
			"error", err,
		)
	}

	return c.Status(status).JSON(errorEnvelope{Error: errorBody{
		StatusCode: status,
		Detail:     detail,
		ErrorCode:  code,
		Timestamp:  feature.FormatTimestamp(s.now()),
	}})
}

// describe returns the status, code and caller-facing detail of err.
func (s *Server) describe(err error) (int, string, string) {
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		kind, ok := statusKinds[ferr.Code]
		if !ok {
			return ferr.Code, "HTTP_ERROR", ferr.Message
		}
		return ferr.Code, kind.Code(), ferr.Message
	}

	fe := fault.Classify(err)
	return fe.Status(), fe.Kind.Code(), fe.PublicDetail(s.opts.Production)
}
