package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"stories-profit-api/pkg/models"
	"stories-profit-api/pkg/openai"
)

// TextGenerator is the capability the description service needs from a
// text-generation backend. *openai.Client satisfies it.
type TextGenerator interface {
	Configured() bool
	ChatCompletionJSON(ctx context.Context, messages []openai.ChatMessage, maxTokens int, temperature float32) (string, error)
}

// DescriptionService produces one human-readable description per
// recommendation, preserving order and count. When a text generator is
// configured it batches all recommendations into a single call; on any failure
// (call error, malformed response, count mismatch) the whole batch falls back
// to the deterministic template text. The fallback is never sent to the
// generator as an input signal.
type DescriptionService struct {
	gen TextGenerator
}

// NewDescriptionService creates a new DescriptionService. gen may be an
// unconfigured client; descriptions then always use the fallback path.
func NewDescriptionService(gen TextGenerator) *DescriptionService {
	return &DescriptionService{gen: gen}
}

const descriptionSystemPrompt = `You are a profit analyst for Stories Coffee, a Lebanese coffee chain. Write concise, confident business recommendations for non-technical managers.
Rules:
- Start directly with the insight, not with "This product" or "Based on data"
- Use the exact numbers from the data provided and never invent figures
- 2-3 sentences max
- Sound like advice from a smart CFO, not a data scientist
- No jargon (no "menu engineering", "regression", "ML", "model")
- Reference actual LBP amounts, percentages, and branch counts
Respond ONLY with a JSON object: { "items": ["desc1", "desc2", ...] } with exactly %d strings in order.`

// Describe fills the Description field of every recommendation and returns the
// same slice, in the same order.
func (s *DescriptionService) Describe(ctx context.Context, recs []models.Recommendation) []models.Recommendation {
	if len(recs) == 0 {
		return recs
	}
	if s.gen == nil || !s.gen.Configured() {
		return applyFallback(recs)
	}

	descs, err := s.generate(ctx, recs)
	if err != nil {
		log.Printf("description generation failed, using fallback: %v", err)
		return applyFallback(recs)
	}
	for i := range recs {
		recs[i].Description = descs[i]
	}
	return recs
}

func (s *DescriptionService) generate(ctx context.Context, recs []models.Recommendation) ([]string, error) {
	var sb strings.Builder
	for i, r := range recs {
		// Structured facts only; the fallback text stays out of the prompt.
		facts, err := json.Marshal(r.Data)
		if err != nil {
			return nil, fmt.Errorf("marshal facts: %w", err)
		}
		fmt.Fprintf(&sb, "#%d [%s] %q\nData: %s\n\n", i+1, strings.ToUpper(r.Type), r.Title, facts)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	messages := []openai.ChatMessage{
		{Role: "system", Content: fmt.Sprintf(descriptionSystemPrompt, len(recs))},
		{Role: "user", Content: fmt.Sprintf("Write one recommendation description for each of the following %d items:\n\n%s", len(recs), sb.String())},
	}

	raw, err := s.gen.ChatCompletionJSON(ctx, messages, 1200, 0.4)
	if err != nil {
		return nil, err
	}
	return parseDescriptions(raw, len(recs))
}

// parseDescriptions extracts the string array from the model's JSON object and
// enforces the exact-count contract.
func parseDescriptions(raw string, want int) ([]string, error) {
	var parsed map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse response object: %w", err)
	}

	var arr json.RawMessage
	for _, key := range []string{"items", "recommendations", "descriptions"} {
		if v, ok := parsed[key]; ok {
			arr = v
			break
		}
	}
	if arr == nil {
		// Tolerate a response keyed differently, as long as it holds one array.
		if len(parsed) != 1 {
			return nil, fmt.Errorf("response has no recognizable array field")
		}
		for _, v := range parsed {
			arr = v
		}
	}

	var descs []string
	if err := json.Unmarshal(arr, &descs); err != nil {
		return nil, fmt.Errorf("parse description array: %w", err)
	}
	if len(descs) != want {
		return nil, fmt.Errorf("description count mismatch: got %d, want %d", len(descs), want)
	}
	for i, d := range descs {
		if strings.TrimSpace(d) == "" {
			return nil, fmt.Errorf("empty description at index %d", i)
		}
	}
	return descs, nil
}

func applyFallback(recs []models.Recommendation) []models.Recommendation {
	for i := range recs {
		recs[i].Description = recs[i].Fallback
	}
	return recs
}
