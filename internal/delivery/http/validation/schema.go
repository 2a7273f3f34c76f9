// Package validation checks request bodies against JSON schemas before they
// are bound, so malformed payloads fail with a field-level message.
package validation

import (
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidBody = errors.New("invalid request body")

type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// MustCompile panics if src is not a valid JSON schema.
func MustCompile(name, src string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema %s: %v", name, err))
	}
	return &Schema{name: name, schema: s}
}

// Validate returns ErrInvalidBody and one message per violation when body
// does not satisfy the schema.
func (s *Schema) Validate(body []byte) ([]string, error) {
	if len(body) == 0 {
		return []string{"body is required"}, ErrInvalidBody
	}
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return []string{"body is not valid JSON"}, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if result.Valid() {
		return nil, nil
	}

	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return errs, ErrInvalidBody
}

var CreateJob = MustCompile("create_job", `{
  "type": "object",
  "required": ["title", "budgetType", "budgetAmount"],
  "properties": {
    "title": {"type": "string", "minLength": 1, "maxLength": 200},
    "description": {"type": "string", "maxLength": 20000},
    "skillsRequired": {"type": "array", "items": {"type": "string"}, "maxItems": 50},
    "budgetType": {"type": "string", "enum": ["fixed", "hourly"]},
    "budgetAmount": {"type": "number", "minimum": 0, "maximum": 999999999999.99, "multipleOf": 0.01},
    "deadline": {"type": ["string", "null"], "format": "date-time"}
  }
}`)

var SubmitProposal = MustCompile("submit_proposal", `{
  "type": "object",
  "required": ["coverLetter", "proposedRate"],
  "properties": {
    "coverLetter": {"type": "string", "minLength": 1, "maxLength": 20000},
    "proposedRate": {"type": "number", "minimum": 0, "maximum": 999999999999.99, "multipleOf": 0.01}
  }
}`)

// SubmitReview leaves rating range and comment length to the review gate so
// those failures carry its messages.
var SubmitReview = MustCompile("submit_review", `{
  "type": "object",
  "required": ["jobId", "revieweeId", "rating", "comment"],
  "properties": {
    "jobId": {"type": "string", "format": "uuid"},
    "revieweeId": {"type": "string", "format": "uuid"},
    "rating": {"type": "integer"},
    "comment": {"type": "string"}
  }
}`)
