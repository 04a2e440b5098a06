package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"stories-profit-api/pkg/models"
	"stories-profit-api/pkg/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	configured bool
	response   string
	err        error
	gotPrompt  string
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func (f *fakeGenerator) ChatCompletionJSON(ctx context.Context, messages []openai.ChatMessage, maxTokens int, temperature float32) (string, error) {
	for _, m := range messages {
		f.gotPrompt += m.Content + "\n"
	}
	return f.response, f.err
}

func sampleRecs() []models.Recommendation {
	return []models.Recommendation{
		{ID: "1", Type: models.RecTypePromote, Title: "Promote A", Data: map[string]string{"product": "A"}, Fallback: "fallback one"},
		{ID: "2", Type: models.RecTypeReprice, Title: "Raise price of B", Data: map[string]string{"product": "B"}, Fallback: "fallback two"},
	}
}

func TestDescribeUnconfiguredUsesFallback(t *testing.T) {
	svc := NewDescriptionService(&fakeGenerator{configured: false})

	recs := svc.Describe(context.Background(), sampleRecs())
	require.Len(t, recs, 2)
	assert.Equal(t, "fallback one", recs[0].Description)
	assert.Equal(t, "fallback two", recs[1].Description)
}

func TestDescribeNilGeneratorUsesFallback(t *testing.T) {
	svc := NewDescriptionService(nil)

	recs := svc.Describe(context.Background(), sampleRecs())
	require.Len(t, recs, 2)
	assert.Equal(t, "fallback one", recs[0].Description)
}

func TestDescribeUsesGeneratedText(t *testing.T) {
	gen := &fakeGenerator{
		configured: true,
		response:   `{"items": ["generated one", "generated two"]}`,
	}
	svc := NewDescriptionService(gen)

	recs := svc.Describe(context.Background(), sampleRecs())
	require.Len(t, recs, 2)
	assert.Equal(t, "generated one", recs[0].Description)
	assert.Equal(t, "generated two", recs[1].Description)
}

func TestDescribePromptExcludesFallbackText(t *testing.T) {
	gen := &fakeGenerator{
		configured: true,
		response:   `{"items": ["a", "b"]}`,
	}
	svc := NewDescriptionService(gen)

	svc.Describe(context.Background(), sampleRecs())
	assert.NotContains(t, gen.gotPrompt, "fallback one")
	assert.NotContains(t, gen.gotPrompt, "fallback two")
	assert.Contains(t, gen.gotPrompt, "Promote A")
}

func TestDescribeCallErrorFallsBack(t *testing.T) {
	gen := &fakeGenerator{configured: true, err: errors.New("upstream down")}
	svc := NewDescriptionService(gen)

	recs := svc.Describe(context.Background(), sampleRecs())
	assert.Equal(t, "fallback one", recs[0].Description)
	assert.Equal(t, "fallback two", recs[1].Description)
}

func TestDescribeCountMismatchFallsBackWholeBatch(t *testing.T) {
	gen := &fakeGenerator{
		configured: true,
		response:   `{"items": ["only one"]}`,
	}
	svc := NewDescriptionService(gen)

	recs := svc.Describe(context.Background(), sampleRecs())
	assert.Equal(t, "fallback one", recs[0].Description)
	assert.Equal(t, "fallback two", recs[1].Description)
}

func TestDescribeMalformedJSONFallsBack(t *testing.T) {
	gen := &fakeGenerator{configured: true, response: `not json`}
	svc := NewDescriptionService(gen)

	recs := svc.Describe(context.Background(), sampleRecs())
	assert.Equal(t, "fallback one", recs[0].Description)
}

func TestDescribeEmptyInput(t *testing.T) {
	svc := NewDescriptionService(&fakeGenerator{configured: true})
	assert.Empty(t, svc.Describe(context.Background(), nil))
}

func TestParseDescriptions(t *testing.T) {
	descs, err := parseDescriptions(`{"items": ["a", "b"]}`, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, descs)

	descs, err = parseDescriptions(`{"recommendations": ["a"]}`, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, descs)

	// A single unrecognized key still works if it holds the array.
	descs, err = parseDescriptions(`{"results": ["a"]}`, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, descs)
}

func TestParseDescriptionsRejectsBadShapes(t *testing.T) {
	_, err := parseDescriptions(`{"items": ["a"]}`, 2)
	assert.Error(t, err)

	_, err = parseDescriptions(`{"items": ["a", "   "]}`, 2)
	assert.Error(t, err)

	_, err = parseDescriptions(`{"items": "not an array"}`, 1)
	assert.Error(t, err)

	_, err = parseDescriptions(`{"a": [], "b": []}`, 0)
	assert.Error(t, err)

	_, err = parseDescriptions(`[]`, 0)
	assert.Error(t, err)
}

func TestDescriptionFieldsExcludedFromJSON(t *testing.T) {
	rec := models.Recommendation{
		ID:          "1",
		Type:        models.RecTypePromote,
		Fallback:    "internal template",
		Data:        map[string]string{"k": "v"},
		Description: "visible text",
	}
	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "internal template")
	assert.Contains(t, string(raw), "visible text")
}
