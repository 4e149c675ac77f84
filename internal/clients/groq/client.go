// Package groq provides the text-generation client used for AI-grounded
// replies. Any failure mode (missing key, HTTP error, empty completion)
// yields an empty result so the caller can fall back to its phrase pool.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/eacar/amplify/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultBaseURL = "https://api.groq.com/openai/v1"
	defaultModel   = "llama-3.3-70b-versatile"
)

// stylePrompts maps comment styles to system prompts. The assistant is asked
// for one short, positive, natural-sounding line and to answer with a few
// emoji when it cannot relate to the source text.
var stylePrompts = map[domain.CommentStyle]string{
	domain.StyleProfessional: "You write short, polished social media replies in a professional tone. " +
		"Keep it between 5 and 20 words, positive and natural.",
	domain.StyleFriendly: "You write short, warm social media replies in a friendly tone. " +
		"Keep it between 5 and 20 words, positive and natural.",
	domain.StyleInformative: "You write short social media replies that add a small relevant observation. " +
		"Keep it between 5 and 20 words, positive and natural.",
	domain.StyleCasual: "You write short, casual social media replies. " +
		"Keep it between 5 and 20 words, positive and natural.",
}

const promptSuffix = " If you cannot relate to the post's content, answer with 1-3 emoji only " +
	"(such as 👏❤️🔥🙌). Never be aggressive, insulting, or inflammatory."

// Client calls the Groq chat-completions API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        zerolog.Logger
}

// Config holds client configuration. BaseURL and Model default when empty.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// New creates a Groq client. An empty API key is allowed; Generate then
// reports no result instead of erroring at construction time.
func New(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log.With().Str("client", "groq").Logger(),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate produces one reply line for the given source text. It returns an
// empty string (never panics, never returns partial text) when the API key
// is unset, the request fails, or the completion is empty.
func (c *Client) Generate(ctx context.Context, sourceText string, style domain.CommentStyle) (string, error) {
	if c.apiKey == "" {
		c.log.Debug().Msg("API key not configured, skipping AI generation")
		return "", nil
	}

	system, ok := stylePrompts[style]
	if !ok {
		system = stylePrompts[domain.StyleProfessional]
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system + promptSuffix},
			{Role: "user", Content: fmt.Sprintf("Write a single-line reply that fits the following post:\n\n%q", sourceText)},
		},
		Temperature: 0.9,
		MaxTokens:   80,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat completion returned status %d: %s", resp.StatusCode, string(detail))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", nil
	}

	return stripQuotes(parsed.Choices[0].Message.Content), nil
}

// stripQuotes removes wrapping quote characters the model sometimes adds.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, pair := range [][2]string{{`"`, `"`}, {"'", "'"}, {"“", "”"}, {"‘", "’"}} {
		if strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) && len(s) >= len(pair[0])+len(pair[1]) {
			s = strings.TrimPrefix(s, pair[0])
			s = strings.TrimSuffix(s, pair[1])
		}
	}
	return strings.TrimSpace(s)
}
