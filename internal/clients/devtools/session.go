package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eacar/amplify/internal/domain"
	"github.com/rs/zerolog"
)

// session is one attached page target inside an isolated browser context.
// It implements automation.Session.
type session struct {
	client    *Client
	sessionID string
	targetID  string
	contextID string
	log       zerolog.Logger
}

// configure loads the account's cookies and applies the user agent and
// viewport overrides before any navigation happens.
func (s *session) configure(ctx context.Context, account domain.Account) error {
	if err := s.client.call(ctx, s.sessionID, "Network.enable", nil, nil); err != nil {
		return fmt.Errorf("failed to enable network domain: %w", err)
	}

	cookies := make([]map[string]interface{}, 0, len(account.Cookies))
	for _, cookie := range account.Cookies {
		entry := map[string]interface{}{
			"name":     cookie.Name,
			"value":    cookie.Value,
			"httpOnly": cookie.HTTPOnly,
			"secure":   cookie.Secure,
		}
		if cookie.Domain != "" {
			entry["domain"] = cookie.Domain
		}
		if cookie.Path != "" {
			entry["path"] = cookie.Path
		}
		cookies = append(cookies, entry)
	}
	if len(cookies) > 0 {
		if err := s.client.call(ctx, s.sessionID, "Network.setCookies", map[string]interface{}{
			"cookies": cookies,
		}, nil); err != nil {
			return fmt.Errorf("failed to set cookies: %w", err)
		}
	}

	if err := s.client.call(ctx, s.sessionID, "Network.setUserAgentOverride", map[string]interface{}{
		"userAgent": defaultUserAgent,
	}, nil); err != nil {
		return fmt.Errorf("failed to override user agent: %w", err)
	}

	if err := s.client.call(ctx, s.sessionID, "Emulation.setDeviceMetricsOverride", map[string]interface{}{
		"width":             viewportWidth,
		"height":            viewportHeight,
		"deviceScaleFactor": 1,
		"mobile":            false,
	}, nil); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	s.log.Debug().Int("cookies", len(cookies)).Msg("Session configured")
	return nil
}

// Navigate loads the URL and polls until the document has finished loading.
func (s *session) Navigate(ctx context.Context, url string) error {
	var nav struct {
		ErrorText string `json:"errorText"`
	}
	if err := s.client.call(ctx, s.sessionID, "Page.navigate", map[string]interface{}{
		"url": url,
	}, &nav); err != nil {
		return err
	}
	if nav.ErrorText != "" {
		return fmt.Errorf("navigation failed: %s", nav.ErrorText)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var state string
		if err := s.evaluate(ctx, `document.readyState`, &state); err == nil {
			if state == "interactive" || state == "complete" {
				return nil
			}
		}
		wait(ctx, pollInterval)
	}
	return fmt.Errorf("timed out waiting for %s to load", url)
}

// WaitVisible polls for an element matching the selector with a non-empty
// layout box.
func (s *session) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	expr := fmt.Sprintf(
		`(() => { const el = document.querySelector(%s); if (!el) return false; const r = el.getBoundingClientRect(); return r.width > 0 && r.height > 0; })()`,
		jsString(selector))

	deadline := time.Now().Add(timeout)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var visible bool
		if err := s.evaluate(ctx, expr, &visible); err == nil && visible {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("element %q not visible after %s", selector, timeout)
		}
		wait(ctx, pollInterval)
	}
}

// Click activates the first element matching the selector via its DOM click
// handler.
func (s *session) Click(ctx context.Context, selector string) error {
	expr := fmt.Sprintf(
		`(() => { const el = document.querySelector(%s); if (!el) return false; el.scrollIntoView({block: "center"}); el.click(); return true; })()`,
		jsString(selector))

	var clicked bool
	if err := s.evaluate(ctx, expr, &clicked); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("element %q not found", selector)
	}
	return nil
}

// Type focuses the element and inserts the text one character at a time,
// mimicking keyboard input so rich-text editors register it.
func (s *session) Type(ctx context.Context, selector, text string, delay time.Duration) error {
	focus := fmt.Sprintf(
		`(() => { const el = document.querySelector(%s); if (!el) return false; el.focus(); return true; })()`,
		jsString(selector))

	var focused bool
	if err := s.evaluate(ctx, focus, &focused); err != nil {
		return err
	}
	if !focused {
		return fmt.Errorf("element %q not found", selector)
	}

	for _, r := range text {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := s.client.call(ctx, s.sessionID, "Input.insertText", map[string]interface{}{
			"text": string(r),
		}, nil); err != nil {
			return fmt.Errorf("failed to type text: %w", err)
		}
		wait(ctx, delay)
	}
	return nil
}

// Text returns the text content of the first element matching the selector.
func (s *session) Text(ctx context.Context, selector string) (string, error) {
	expr := fmt.Sprintf(
		`(() => { const el = document.querySelector(%s); return el ? el.textContent : null; })()`,
		jsString(selector))

	var text *string
	if err := s.evaluate(ctx, expr, &text); err != nil {
		return "", err
	}
	if text == nil {
		return "", fmt.Errorf("element %q not found", selector)
	}
	return *text, nil
}

// URL returns the page's current location.
func (s *session) URL(ctx context.Context) (string, error) {
	var url string
	if err := s.evaluate(ctx, `window.location.href`, &url); err != nil {
		return "", err
	}
	return url, nil
}

// Close disposes the page target and its browser context (cookies included).
func (s *session) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()

	if err := s.client.call(ctx, "", "Target.closeTarget", map[string]interface{}{
		"targetId": s.targetID,
	}, nil); err != nil {
		return fmt.Errorf("failed to close target: %w", err)
	}
	if err := s.client.call(ctx, "", "Target.disposeBrowserContext", map[string]interface{}{
		"browserContextId": s.contextID,
	}, nil); err != nil {
		return fmt.Errorf("failed to dispose browser context: %w", err)
	}
	return nil
}

// evaluate runs a JavaScript expression in the page and decodes its
// by-value result into out.
func (s *session) evaluate(ctx context.Context, expression string, out interface{}) error {
	var result struct {
		Result struct {
			Value json.RawMessage `json:"value"`
		} `json:"result"`
		ExceptionDetails *struct {
			Text string `json:"text"`
		} `json:"exceptionDetails"`
	}

	if err := s.client.call(ctx, s.sessionID, "Runtime.evaluate", map[string]interface{}{
		"expression":    expression,
		"returnByValue": true,
	}, &result); err != nil {
		return err
	}
	if result.ExceptionDetails != nil {
		return fmt.Errorf("script threw: %s", result.ExceptionDetails.Text)
	}
	if out == nil || len(result.Result.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Result.Value, out); err != nil {
		return fmt.Errorf("failed to decode evaluation result: %w", err)
	}
	return nil
}

// jsString encodes s as a JavaScript string literal.
func jsString(s string) string {
	data, _ := json.Marshal(s)
	return string(data)
}

// wait sleeps for d unless the context is cancelled first.
func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
