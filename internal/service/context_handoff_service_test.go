package service

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutor-match-api/internal/models"
	"github.com/noah-isme/tutor-match-api/pkg/handoff"
)

func newHandoffService(t *testing.T) *ContextHandoffService {
	t.Helper()
	svc, err := NewContextHandoffService(handoff.NewSigner("handoff-secret", time.Minute), nil)
	require.NoError(t, err)
	return svc
}

func sampleSuggestion() *models.MatchSuggestion {
	note := "checked with tutor"
	return &models.MatchSuggestion{
		ID:     "sug-1",
		Status: models.SuggestionStatusNew,
		Request: models.TutoringRequest{
			StudentID:     "stu-1",
			StudentName:   "Lan",
			Course:        "CO1001",
			Note:          "pointers and recursion",
			PreferredTime: strPtr("afternoon"),
		},
		SuggestedTutor: models.TutorRef{ID: "tut-1", Name: "Minh"},
		Score:          0.7,
		Justifications: []string{"Expertise matches pointers, recursion"},
		Note:           &note,
		CreatedBy:      "coord-1",
		CreatedAt:      time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestContextHandoffRoundTrip(t *testing.T) {
	svc := newHandoffService(t)
	original := sampleSuggestion()

	token, expiresAt, err := svc.Serialize(original)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiresAt.After(time.Now()))

	restored := svc.Deserialize(token)
	require.NotNil(t, restored)
	require.Equal(t, original.Request, restored.Request)
	require.Equal(t, original.SuggestedTutor, restored.SuggestedTutor)
	require.Equal(t, original.Justifications, restored.Justifications)
	require.Equal(t, original.ID, restored.ID)
}

func TestContextHandoffToleratesBadTokens(t *testing.T) {
	svc := newHandoffService(t)
	token, _, err := svc.Serialize(sampleSuggestion())
	require.NoError(t, err)

	require.Nil(t, svc.Deserialize(""))
	require.Nil(t, svc.Deserialize("not-a-token"))

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged := []string{parts[0], parts[1], strings.Repeat("0", len(parts[2]))}
	require.Nil(t, svc.Deserialize(strings.Join(forged, ".")))

	swapped := []string{"eyJpZCI6InN1Zy0yIn0", parts[1], parts[2]}
	require.Nil(t, svc.Deserialize(strings.Join(swapped, ".")))

	other, err := NewContextHandoffService(handoff.NewSigner("different-secret", time.Minute), nil)
	require.NoError(t, err)
	require.Nil(t, other.Deserialize(token))
}

func TestContextHandoffRejectsSchemaViolations(t *testing.T) {
	svc := newHandoffService(t)
	signer := handoff.NewSigner("handoff-secret", time.Minute)

	token, _, err := signer.Seal([]byte(`{"request":{"studentId":"stu-1"},"justifications":[]}`))
	require.NoError(t, err)
	require.Nil(t, svc.Deserialize(token))

	token, _, err = signer.Seal([]byte(`not json`))
	require.NoError(t, err)
	require.Nil(t, svc.Deserialize(token))
}

func TestContextHandoffResolve(t *testing.T) {
	svc := newHandoffService(t)
	token, _, err := svc.Serialize(sampleSuggestion())
	require.NoError(t, err)

	quoted, err := json.Marshal(token)
	require.NoError(t, err)
	fromToken := svc.Resolve(quoted)
	require.NotNil(t, fromToken)
	require.Equal(t, "sug-1", fromToken.ID)

	inline, err := json.Marshal(sampleSuggestion())
	require.NoError(t, err)
	fromInline := svc.Resolve(inline)
	require.NotNil(t, fromInline)
	require.Equal(t, "tut-1", fromInline.SuggestedTutor.ID)

	require.Nil(t, svc.Resolve(nil))
	require.Nil(t, svc.Resolve(json.RawMessage(" null ")))
	require.Nil(t, svc.Resolve(json.RawMessage(`42`)))
	require.Nil(t, svc.Resolve(json.RawMessage(`"garbage"`)))
	require.Nil(t, svc.Resolve(json.RawMessage(`{"suggestedTutor":{"id":""},"request":{"studentId":"s"},"justifications":[]}`)))
}

func TestContextHandoffSerializeRequiresSuggestion(t *testing.T) {
	_, _, err := newHandoffService(t).Serialize(nil)
	requireField(t, err, "suggestion")
}
