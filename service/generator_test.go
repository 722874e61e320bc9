package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rmgen/rmgen-backend/config"
	"github.com/rmgen/rmgen-backend/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiGenerator(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		expected       string
		expectedDetail string
	}{
		{
			name:     "Generated text returned verbatim",
			status:   http.StatusOK,
			body:     `{"candidates":[{"content":{"role":"model","parts":[{"text":"# Hello\n"},{"text":"World"}]}}]}`,
			expected: "# Hello\nWorld",
		},
		{
			name:           "Upstream failure",
			status:         http.StatusBadRequest,
			body:           `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`,
			expectedDetail: "API key not valid",
		},
		{
			name:           "No candidates",
			status:         http.StatusOK,
			body:           `{"candidates":[]}`,
			expectedDetail: "no content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var receivedPath string
			var receivedBody string

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				receivedPath = r.URL.Path
				raw, _ := io.ReadAll(r.Body)
				receivedBody = string(raw)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			generator, err := NewGeminiGenerator(context.Background(), "test-key", "gemini-2.5-flash", server.URL, server.Client())
			require.NoError(t, err)

			content, err := generator.Generate(context.Background(), "write a readme")

			assert.Contains(t, receivedPath, "gemini-2.5-flash:generateContent")
			assert.Contains(t, receivedBody, "write a readme")

			if tt.expectedDetail != "" {
				var generationErr *model.GenerationError
				require.ErrorAs(t, err, &generationErr)
				assert.Contains(t, generationErr.Detail, tt.expectedDetail)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, content)
		})
	}
}

func TestOpenAIGenerator(t *testing.T) {
	tests := []struct {
		name           string
		status         int
		body           string
		expected       string
		expectedDetail string
	}{
		{
			name:     "Generated text returned verbatim",
			status:   http.StatusOK,
			body:     `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"# Project\n\nText"},"finish_reason":"stop"}]}`,
			expected: "# Project\n\nText",
		},
		{
			name:           "Upstream failure",
			status:         http.StatusUnauthorized,
			body:           `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`,
			expectedDetail: "Incorrect API key provided",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var req struct {
					Model    string `json:"model"`
					Messages []struct {
						Content string `json:"content"`
					} `json:"messages"`
				}
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "gpt-4o-mini", req.Model)
				if assert.Len(t, req.Messages, 1) {
					assert.Equal(t, "write a readme", req.Messages[0].Content)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			generator, err := NewOpenAIGenerator("test-key", "gpt-4o-mini", server.URL+"/", server.Client())
			require.NoError(t, err)

			content, err := generator.Generate(context.Background(), "write a readme")

			if tt.expectedDetail != "" {
				var generationErr *model.GenerationError
				require.ErrorAs(t, err, &generationErr)
				assert.Contains(t, generationErr.Detail, tt.expectedDetail)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, content)
		})
	}
}

func TestNewGeneratorWithoutKey(t *testing.T) {
	for _, provider := range []string{config.ProviderGemini, config.ProviderOpenAI} {
		t.Run(provider, func(t *testing.T) {
			cfg := config.GetDefault()
			cfg.Generator.Provider = provider
			cfg.Generator.APIKey = ""

			generator := NewGenerator(context.Background(), *cfg, http.DefaultClient)
			_, err := generator.Generate(context.Background(), "prompt")

			var generationErr *model.GenerationError
			require.ErrorAs(t, err, &generationErr)
			assert.Contains(t, generationErr.Detail, "api key")
		})
	}
}
