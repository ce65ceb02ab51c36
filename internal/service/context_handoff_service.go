package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/handoff"
)

// suggestionContextSchema is the minimum shape an override can rely on for its audit snapshot.
const suggestionContextSchema = `{
  "type": "object",
  "required": ["request", "suggestedTutor", "justifications"],
  "properties": {
    "id": {"type": "string"},
    "status": {"type": "string", "enum": ["NEW", "REVIEWED", "REJECTED"]},
    "score": {"type": "number", "minimum": 0, "maximum": 1},
    "request": {
      "type": "object",
      "required": ["studentId"],
      "properties": {
        "studentId": {"type": "string"},
        "course": {"type": "string"},
        "note": {"type": "string"},
        "preferredTime": {"type": ["string", "null"]}
      }
    },
    "suggestedTutor": {
      "type": "object",
      "required": ["id"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string"}
      }
    },
    "justifications": {"type": "array", "items": {"type": "string"}}
  }
}`

// ContextHandoffService carries a suggestion snapshot from the review step to the override step.
// Reading a context never fails the caller: unusable input yields nil.
type ContextHandoffService struct {
	signer *handoff.Signer
	schema *gojsonschema.Schema
	logger *zap.Logger
}

// NewContextHandoffService compiles the context schema and wires the token signer.
func NewContextHandoffService(signer *handoff.Signer, logger *zap.Logger) (*ContextHandoffService, error) {
	if signer == nil {
		return nil, fmt.Errorf("handoff signer required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(suggestionContextSchema))
	if err != nil {
		return nil, fmt.Errorf("compile suggestion context schema: %w", err)
	}
	return &ContextHandoffService{signer: signer, schema: schema, logger: logger}, nil
}

// Serialize seals the suggestion into an opaque, expiring token.
func (s *ContextHandoffService) Serialize(suggestion *models.MatchSuggestion) (string, time.Time, error) {
	if suggestion == nil {
		return "", time.Time{}, appErrors.Validation("suggestion", "")
	}
	payload, err := json.Marshal(suggestion)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode suggestion context")
	}
	token, expiresAt, err := s.signer.Seal(payload)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seal suggestion context")
	}
	return token, expiresAt, nil
}

// Deserialize returns the suggestion sealed in token, or nil when the token is missing, corrupt,
// tampered with or expired.
func (s *ContextHandoffService) Deserialize(token string) *models.MatchSuggestion {
	if token == "" {
		return nil
	}
	payload, _, err := s.signer.Open(token)
	if err != nil {
		s.discard(err)
		return nil
	}
	return s.decode(payload)
}

// Resolve accepts either a handoff token (JSON string) or an inline suggestion object.
func (s *ContextHandoffService) Resolve(raw json.RawMessage) *models.MatchSuggestion {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var token string
		if err := json.Unmarshal(trimmed, &token); err != nil {
			s.discard(err)
			return nil
		}
		return s.Deserialize(token)
	case '{':
		return s.decode(trimmed)
	default:
		s.discard(fmt.Errorf("unsupported context literal"))
		return nil
	}
}

func (s *ContextHandoffService) decode(payload []byte) *models.MatchSuggestion {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		s.discard(err)
		return nil
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		s.discard(fmt.Errorf("schema violations: %v", errs))
		return nil
	}
	var suggestion models.MatchSuggestion
	if err := json.Unmarshal(payload, &suggestion); err != nil {
		s.discard(err)
		return nil
	}
	return &suggestion
}

func (s *ContextHandoffService) discard(err error) {
	s.logger.Debug("suggestion context discarded", zap.Error(appErrors.Wrap(err, appErrors.ErrDeserialization.Code, appErrors.ErrDeserialization.Status, appErrors.ErrDeserialization.Message)))
}
