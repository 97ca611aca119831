package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fairhaven/internal/event"
	appLog "fairhaven/internal/log"
)

const proposeSystemPrompt = `You turn informal event proposals from coworking members into structured data.
Respond with a single JSON object and nothing else. Keys:
  "name"        (string, required) short event title
  "startDate"   (string, required) ISO-8601 date-time with offset
  "endDate"     (string, optional) ISO-8601 date-time with offset
  "description" (string, optional) one or two sentences
  "location"    (string, optional) room or place if mentioned
Resolve relative dates ("next Thursday", "tomorrow night") against the
current date you are given. If no time is mentioned, assume 6 PM. Omit keys
you cannot fill; never invent a date when none is implied.`

// ParseProposal turns a free-text event proposal into a draft via one
// messages call. The current local time is handed to the model so relative
// dates resolve in the space's timezone.
func ParseProposal(ctx context.Context, client MessagesClient, model, text string, now time.Time) (event.Draft, error) {
	var draft event.Draft

	text = strings.TrimSpace(text)
	if text == "" {
		return draft, fmt.Errorf("llm: proposal text is empty")
	}

	proposalID := uuid.NewString()
	appLog.Info("parsing event proposal", "proposal_id", proposalID, "chars", len(text))

	resp, err := client.Messages(ctx, MessagesRequest{
		Model:     model,
		MaxTokens: 1024,
		System:    proposeSystemPrompt,
		Messages: []Message{
			{
				Role: "user",
				Content: fmt.Sprintf("Current date-time: %s (%s)\n\nProposal:\n%s",
					now.Format(time.RFC3339), now.Location(), text),
			},
		},
	})
	if err != nil {
		return draft, err
	}

	raw := stripCodeFence(resp.Text())
	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		appLog.Warn("proposal parse returned non-JSON", "proposal_id", proposalID, "reason", err)
		return draft, fmt.Errorf("llm: model did not return valid JSON: %w", err)
	}

	if err := draft.Validate(); err != nil {
		return event.Draft{}, err
	}

	appLog.Info("proposal parsed", "proposal_id", proposalID, "name", draft.Name, "start", draft.StartDate)
	return draft, nil
}

// stripCodeFence removes a ```json ... ``` wrapper if the model added one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
