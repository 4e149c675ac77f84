package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/eacar/amplify/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_ReturnsCompletion(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `"Nice post!"`}},
			},
		})
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "test-key"}, zerolog.Nop())

	text, err := client.Generate(context.Background(), "some post", domain.StyleFriendly)

	require.NoError(t, err)
	assert.Equal(t, "Nice post!", text) // wrapping quotes stripped
	assert.Equal(t, defaultModel, captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Contains(t, captured.Messages[1].Content, "some post")
}

func TestGenerate_NoAPIKeyIsNotAnError(t *testing.T) {
	client := New(Config{}, zerolog.Nop())

	text, err := client.Generate(context.Background(), "post", domain.StyleCasual)

	assert.NoError(t, err)
	assert.Empty(t, text)
}

func TestGenerate_HTTPErrorSurfacesAsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "test-key"}, zerolog.Nop())

	text, err := client.Generate(context.Background(), "post", domain.StyleProfessional)

	assert.Error(t, err)
	assert.Empty(t, text)
}

func TestGenerate_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, APIKey: "test-key"}, zerolog.Nop())

	text, err := client.Generate(context.Background(), "post", domain.StyleInformative)

	assert.NoError(t, err)
	assert.Empty(t, text)
}

func TestStripQuotes(t *testing.T) {
	assert.Equal(t, "hello", stripQuotes(`"hello"`))
	assert.Equal(t, "hello", stripQuotes("“hello”"))
	assert.Equal(t, "hello", stripQuotes("  'hello'  "))
	assert.Equal(t, `say "hi"`, stripQuotes(`say "hi"`))
}
