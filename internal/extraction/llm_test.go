package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praktiklabs/kurator/internal/knowledge"
)

const validCandidateJSON = `{
	"topic": "Konsistensi Posting",
	"narrative": "Posting pada jadwal tetap membantu algoritma mengenali akun.",
	"keywords": ["posting", "konsisten", "jadwal"],
	"subcategory": "algorithm",
	"confidenceScore": 0.85
}`

func TestParseCandidateJSON(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		candidate, err := parseCandidateJSON(validCandidateJSON)
		require.NoError(t, err)
		assert.Equal(t, "Konsistensi Posting", candidate.Topic)
		assert.Equal(t, []string{"posting", "konsisten", "jadwal"}, candidate.Keywords)
		assert.Equal(t, "algorithm", candidate.Subcategory)
		assert.InDelta(t, 0.85, candidate.Confidence, 1e-9)
	})

	t.Run("markdown fences are stripped", func(t *testing.T) {
		candidate, err := parseCandidateJSON("```json\n" + validCandidateJSON + "\n```")
		require.NoError(t, err)
		assert.Equal(t, "Konsistensi Posting", candidate.Topic)
	})

	tests := []struct {
		name    string
		payload string
	}{
		{"malformed JSON", `{"topic": "x"`},
		{"plain prose", `I could not extract anything useful from this exchange.`},
		{"missing topic", `{"narrative":"n","keywords":["k"],"confidenceScore":0.8}`},
		{"blank topic", `{"topic":"  ","narrative":"n","keywords":["k"],"confidenceScore":0.8}`},
		{"missing narrative", `{"topic":"t","keywords":["k"],"confidenceScore":0.8}`},
		{"missing keywords", `{"topic":"t","narrative":"n","confidenceScore":0.8}`},
		{"empty keywords", `{"topic":"t","narrative":"n","keywords":[],"confidenceScore":0.8}`},
		{"whitespace keywords", `{"topic":"t","narrative":"n","keywords":[" ",""],"confidenceScore":0.8}`},
		{"missing confidence", `{"topic":"t","narrative":"n","keywords":["k"]}`},
		{"confidence above one", `{"topic":"t","narrative":"n","keywords":["k"],"confidenceScore":1.2}`},
		{"confidence below zero", `{"topic":"t","narrative":"n","keywords":["k"],"confidenceScore":-0.1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCandidateJSON(tt.payload)
			assert.ErrorIs(t, err, ErrExtractionFailed)
		})
	}
}

// A confidence of exactly zero is valid: present and in range.
func TestParseCandidateJSON_ZeroConfidence(t *testing.T) {
	candidate, err := parseCandidateJSON(`{"topic":"t","narrative":"n","keywords":["k"],"confidenceScore":0}`)
	require.NoError(t, err)
	assert.Zero(t, candidate.Confidence)
}

func testExchange() knowledge.Exchange {
	return knowledge.Exchange{
		Question: "kenapa video saya tidak masuk fyp",
		Response: "Konsistensi posting menentukan distribusi awal.",
		Mode:     knowledge.DomainTikTok,
	}
}

func TestAnthropicExtractor_Extract(t *testing.T) {
	var gotReq anthropicRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("Anthropic-Version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := anthropicResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{{Type: "text", Text: validCandidateJSON}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	extractor, err := newAnthropicExtractor(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	candidate, err := extractor.Extract(context.Background(), testExchange())
	require.NoError(t, err)
	assert.Equal(t, "Konsistensi Posting", candidate.Topic)

	assert.Equal(t, defaultAnthropicModel, gotReq.Model)
	assert.Equal(t, extractSystemPrompt, gotReq.System)
	require.Len(t, gotReq.Messages, 1)
	assert.Contains(t, gotReq.Messages[0].Content, "kenapa video saya tidak masuk fyp")
}

func TestAnthropicExtractor_MalformedResponseIsTerminal(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		resp := anthropicResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{{Type: "text", Text: "not json at all"}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	extractor, err := newAnthropicExtractor(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), testExchange())
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Equal(t, int32(1), calls.Load(), "schema failures must not be retried")
}

func TestAnthropicExtractor_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		resp := anthropicResponse{
			Content: []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			}{{Type: "text", Text: validCandidateJSON}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	extractor, err := newAnthropicExtractor(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)
	extractor.(*anthropicExtractor).maxRetries = 1

	candidate, err := extractor.Extract(context.Background(), testExchange())
	require.NoError(t, err)
	assert.Equal(t, "Konsistensi Posting", candidate.Topic)
	assert.Equal(t, int32(2), calls.Load())
}

func TestAnthropicExtractor_ClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`)
	}))
	defer srv.Close()

	extractor, err := newAnthropicExtractor(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = extractor.Extract(context.Background(), testExchange())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad request")
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIExtractor_Extract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		fmt.Fprintf(w, `{"choices":[{"message":{"role":"assistant","content":%q}}]}`, validCandidateJSON)
	}))
	defer srv.Close()

	extractor, err := newOpenAIExtractor(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	candidate, err := extractor.Extract(context.Background(), testExchange())
	require.NoError(t, err)
	assert.Equal(t, "Konsistensi Posting", candidate.Topic)
}

func TestNew(t *testing.T) {
	t.Run("anthropic", func(t *testing.T) {
		extractor, err := New(Config{Provider: ProviderAnthropic, APIKey: "k"})
		require.NoError(t, err)
		assert.IsType(t, &anthropicExtractor{}, extractor)
	})

	t.Run("openai", func(t *testing.T) {
		extractor, err := New(Config{Provider: ProviderOpenAI, APIKey: "k"})
		require.NoError(t, err)
		assert.IsType(t, &openAIExtractor{}, extractor)
	})

	t.Run("missing api key", func(t *testing.T) {
		_, err := New(Config{Provider: ProviderAnthropic})
		assert.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := New(Config{Provider: "oracle", APIKey: "k"})
		assert.Error(t, err)
	})
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(&retryableError{err: errors.New("boom")}))
	assert.True(t, isRetryableError(fmt.Errorf("wrapped: %w", &retryableError{err: errors.New("boom")})))
	assert.False(t, isRetryableError(errors.New("plain")))
	assert.False(t, isRetryableError(nil))
}
