package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	reply   string
	err     error
	lastReq MessagesRequest
}

func (s *stubClient) Messages(_ context.Context, req MessagesRequest) (*MessagesResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &MessagesResponse{Content: []ContentBlock{{Type: "text", Text: s.reply}}}, nil
}

func TestParseProposal(t *testing.T) {
	stub := &stubClient{reply: `{"name":"Pitch Night","startDate":"2026-05-07T18:00:00-07:00","location":"Main Floor"}`}
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	draft, err := ParseProposal(context.Background(), stub, "test-model", "pitch night next thursday", now)
	require.NoError(t, err)

	assert.Equal(t, "Pitch Night", draft.Name)
	assert.Equal(t, "2026-05-07T18:00:00-07:00", draft.StartDate)
	assert.Equal(t, "Main Floor", draft.Location)

	// The call carries the model, a system prompt, and the current time so
	// relative dates can be resolved.
	assert.Equal(t, "test-model", stub.lastReq.Model)
	assert.NotEmpty(t, stub.lastReq.System)
	require.Len(t, stub.lastReq.Messages, 1)
	assert.Contains(t, stub.lastReq.Messages[0].Content, "2026-05-01T10:00:00Z")
	assert.Contains(t, stub.lastReq.Messages[0].Content, "pitch night next thursday")
}

func TestParseProposalFencedReply(t *testing.T) {
	stub := &stubClient{reply: "```json\n{\"name\":\"Game Night\",\"startDate\":\"2026-05-08T19:00:00-07:00\"}\n```"}

	draft, err := ParseProposal(context.Background(), stub, "test-model", "game night friday", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Game Night", draft.Name)
}

func TestParseProposalInvalidJSON(t *testing.T) {
	stub := &stubClient{reply: "Sounds fun! I'd suggest Thursday at 6."}

	_, err := ParseProposal(context.Background(), stub, "test-model", "something vague", time.Now())
	assert.Error(t, err)
}

func TestParseProposalMissingRequiredFields(t *testing.T) {
	stub := &stubClient{reply: `{"description":"an event with no name or date"}`}

	_, err := ParseProposal(context.Background(), stub, "test-model", "do a thing sometime", time.Now())
	assert.Error(t, err)
}

func TestParseProposalEmptyText(t *testing.T) {
	stub := &stubClient{}
	_, err := ParseProposal(context.Background(), stub, "test-model", "   ", time.Now())
	assert.Error(t, err)
}

func TestParseProposalClientError(t *testing.T) {
	stub := &stubClient{err: errors.New("rate limited")}
	_, err := ParseProposal(context.Background(), stub, "test-model", "pitch night", time.Now())
	assert.Error(t, err)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence(`{"a":1}`))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}\n```"))
}

func TestClientMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		fmt.Fprint(w, `{"content":[{"type":"text","text":"hello "},{"type":"text","text":"there"}],"stop_reason":"end_turn"}`)
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))
	resp, err := client.Messages(context.Background(), MessagesRequest{Model: "test-model", MaxTokens: 16})
	require.NoError(t, err)
	assert.Equal(t, "hello there", resp.Text())
}

func TestClientMessagesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"overloaded_error"}}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("secret", WithBaseURL(srv.URL))
	_, err := client.Messages(context.Background(), MessagesRequest{Model: "test-model"})
	assert.Error(t, err)
}
