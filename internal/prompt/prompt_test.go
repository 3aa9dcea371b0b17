// internal/prompt/prompt_test.go
package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"msme-insights/internal/models"
)

func TestBuild_Deterministic(t *testing.T) {
	history := []models.Message{
		{Role: models.MessageRoleUser, Content: "I run a dhaba near Ludhiana"},
		{Role: models.MessageRoleAssistant, Content: "Tell me more about your business."},
		{Role: models.MessageRoleUser, Content: "We have 6 people working"},
	}

	first := Build(history)
	second := Build(history)
	assert.Equal(t, first, second)
}

func TestBuild_NumbersTranscriptInOrder(t *testing.T) {
	history := []models.Message{
		{Role: models.MessageRoleUser, Content: "first message"},
		{Role: models.MessageRoleAssistant, Content: "second message"},
	}

	out := Build(history)
	assert.Contains(t, out, "1. User: first message")
	assert.Contains(t, out, "2. Assistant: second message")
	assert.Less(t, strings.Index(out, "1. User"), strings.Index(out, "2. Assistant"))
}

func TestBuild_ContainsRubricAndSchema(t *testing.T) {
	out := Build(nil)
	assert.Contains(t, out, "schemeInterests")
	assert.Contains(t, out, "confidence")
	assert.Contains(t, out, "detectedLanguages")
	assert.Contains(t, out, "lakh")
	assert.Contains(t, out, "Transcript:")
}
