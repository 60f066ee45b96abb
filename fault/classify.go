package fault

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/feature"
)

// phrase groups in match order. The first group with a phrase found in the
// message decides the kind. Phrases match whole words, case-insensitively.
var phraseRules = []struct {
	kind    Kind
	phrases *regexp.Regexp
}{
	{NotFound, phrases(`not found`, `does not exist`, `doesn't exist`, `no items found`, `no records found`)},
	{ServiceUnavailable, phrases(`dynamodb`, `aws`, `amazonaws`, `boto\w*`, `throughput`, `throttl\w*`,
		`connection refused`, `\w*timeout`, `timed out`, `(?:service|temporarily) unavailable`)},
	// "unauthorized" reads as a missing permission here. Unauthorized is only
	// produced from backend credential error codes.
	{Forbidden, phrases(`forbidden`, `permission denied`, `access denied`, `unauthorized`)},
	{Validation, phrases(`invalid`, `must be`, `cannot be empty`, `not allowed`, `too long`, `missing required field`, `expected`)},
	{Validation, phrases(`missing field`, `wrong type`, `type mismatch`, `cannot unmarshal`)},
}

func phrases(p ...string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(p, `|`) + `)\b`)
}

var apiCodes = map[string]Kind{
	"ConditionalCheckFailedException":        Conflict,
	"TransactionConflictException":           Conflict,
	"AccessDeniedException":                  Forbidden,
	"UnrecognizedClientException":            Unauthorized,
	"InvalidSignatureException":              Unauthorized,
	"ExpiredTokenException":                  Unauthorized,
	"MissingAuthenticationTokenException":    Unauthorized,
	"ValidationException":                    Validation,
	"ResourceNotFoundException":              ServiceUnavailable,
	"ProvisionedThroughputExceededException": ServiceUnavailable,
	"ThrottlingException":                    ServiceUnavailable,
	"RequestLimitExceeded":                   ServiceUnavailable,
	"InternalServerError":                    ServiceUnavailable,
	"ServiceUnavailable":                     ServiceUnavailable,
	"LimitExceededException":                 ServiceUnavailable,
}

// Classify maps any error to a classified *Error. It never returns nil for a non-nil
// err. Errors already classified pass through, known error types are mapped next,
// and anything else is classified by the phrases of its message.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe
	}
	if kind, ok := classifyTyped(err); ok {
		return &Error{Kind: kind, Detail: detailOf(err), Err: err}
	}
	return &Error{Kind: classifyMessage(err.Error()), Detail: detailOf(err), Err: err}
}

func classifyTyped(err error) (Kind, bool) {
	switch {
	case errors.Is(err, feature.ErrNotFound), errors.Is(err, feature.ErrNothingFound):
		return NotFound, true
	case errors.Is(err, feature.ErrCategoryNotAllowed),
		errors.Is(err, feature.ErrEmptyFeatures),
		errors.Is(err, feature.ErrEmptyRequest),
		errors.Is(err, feature.ErrEmptySelection),
		errors.Is(err, feature.ErrInvalidEntity),
		errors.Is(err, feature.ErrInvalidEntityKind),
		errors.Is(err, feature.ErrInvalidCategory),
		errors.Is(err, feature.ErrInvalidFeatureToken):
		return Validation, true
	}

	var merr *feature.MarshalError
	if errors.As(err, &merr) {
		// Unreadable stored data.
		if merr.Decode {
			return Internal, true
		}
		return Validation, true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if kind, ok := apiCodes[apiErr.ErrorCode()]; ok {
			return kind, true
		}
		return ServiceUnavailable, true
	}

	var serr *feature.StoreError
	if errors.As(err, &serr) {
		return ServiceUnavailable, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ServiceUnavailable, true
	}
	return Internal, false
}

func classifyMessage(msg string) Kind {
	for _, rule := range phraseRules {
		if rule.phrases.MatchString(msg) {
			return rule.kind
		}
	}
	return Internal
}

func detailOf(err error) string {
	msg := strings.TrimSpace(err.Error())
	msg = strings.TrimPrefix(msg, "featurestore: ")
	if msg == "" {
		return "Unexpected error"
	}
	return msg
}
