package llm

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/jandy1990/wwfm-platform-sub002/internal/errors"
)

// structuredCall asks the generation client for JSON and decodes it
// into out. Malformed payloads get bounded retries; the second and
// later attempts carry a corrective instruction. Quota and transport
// errors propagate unchanged.
func structuredCall(ctx context.Context, gen *GenerationClient, prompt string, tries int, out any) error {
	if tries <= 0 {
		tries = 2
	}

	var lastErr error
	for attempt := 1; attempt <= tries; attempt++ {
		p := prompt
		if attempt > 1 {
			p = prompt + "\n\nYour previous reply was not valid JSON (" + lastErr.Error() +
				"). Reply again with ONLY the JSON, no prose and no markdown fences."
		}

		text, err := gen.GenerateText(ctx, p)
		if err != nil {
			return err
		}

		if err := json.Unmarshal([]byte(extractJSON(text)), out); err != nil {
			lastErr = err
			log.Printf("[StructuredCall] attempt %d/%d returned unparseable JSON: %v", attempt, tries, err)
			continue
		}
		return nil
	}
	return errors.GenerationError("service returned unparseable JSON after retries", lastErr)
}

// extractJSON strips markdown fences and any prose around the first
// JSON value. Generation output is routinely wrapped in both.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if end := strings.LastIndex(text, "```"); end >= 0 {
			text = text[:end]
		}
		text = strings.TrimSpace(text)
	}

	startObj := strings.IndexAny(text, "{[")
	if startObj < 0 {
		return text
	}
	closer := byte('}')
	if text[startObj] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end <= startObj {
		return text[startObj:]
	}
	return text[startObj : end+1]
}
