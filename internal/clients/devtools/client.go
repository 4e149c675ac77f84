// Package devtools drives a remote Chromium instance over the DevTools
// protocol. It implements the automation capability interfaces: the Client
// attaches to a browser's debugging endpoint via WebSocket, and each Session
// is an isolated browser context (own cookie jar) holding one page target.
package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/eacar/amplify/internal/automation"
	"github.com/eacar/amplify/internal/domain"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const (
	dialTimeout  = 30 * time.Second
	writeWait    = 10 * time.Second
	callTimeout  = 30 * time.Second
	pollInterval = 250 * time.Millisecond

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	viewportWidth  = 1920
	viewportHeight = 1080
)

// Client is a DevTools protocol client over one browser-level WebSocket
// connection. It implements automation.Browser.
type Client struct {
	endpoint   string // e.g. http://localhost:9222
	httpClient *http.Client
	log        zerolog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	connCtx context.Context
	cancel  context.CancelFunc
	nextID  int64
	pending map[int64]chan callResult
}

// New creates a client for the given debugging endpoint. Launch must be
// called before NewSession.
func New(endpoint string, log zerolog.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: dialTimeout},
		log:        log.With().Str("client", "devtools").Logger(),
		pending:    make(map[int64]chan callResult),
	}
}

type callResult struct {
	result json.RawMessage
	err    error
}

// protocol message shapes

type request struct {
	ID        int64       `json:"id"`
	SessionID string      `json:"sessionId,omitempty"`
	Method    string      `json:"method"`
	Params    interface{} `json:"params,omitempty"`
}

type response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Launch discovers the browser's WebSocket debugger URL and connects to it.
// Calling Launch while connected is a no-op, so every run can launch without
// tearing down the shared browser connection.
func (c *Client) Launch(ctx context.Context) error {
	c.mu.Lock()
	connected := c.conn != nil
	c.mu.Unlock()
	if connected {
		return nil
	}

	wsURL, err := c.debuggerURL(ctx)
	if err != nil {
		return err
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, dialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		HTTPClient: c.httpClient,
	})
	if err != nil {
		return fmt.Errorf("failed to dial DevTools WebSocket: %w", err)
	}
	// CDP result payloads (DOM snapshots, large evaluations) can exceed the
	// default read limit.
	conn.SetReadLimit(16 << 20)

	connCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.conn = conn
	c.connCtx = connCtx
	c.cancel = cancel
	c.mu.Unlock()

	go c.readMessages(connCtx, conn)

	c.log.Info().Str("endpoint", c.endpoint).Msg("Connected to browser DevTools endpoint")
	return nil
}

// Close tears down the browser connection. Pending calls fail with a
// connection-closed error.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	cancel := c.cancel
	c.conn = nil
	c.cancel = nil
	for id, ch := range c.pending {
		ch <- callResult{err: fmt.Errorf("connection closed")}
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn == nil {
		return nil
	}
	if err := conn.Close(websocket.StatusNormalClosure, ""); err != nil {
		return fmt.Errorf("error closing DevTools WebSocket: %w", err)
	}
	return nil
}

// NewSession creates an isolated browser context with the account's cookies
// loaded and one page target attached.
func (c *Client) NewSession(ctx context.Context, account domain.Account) (automation.Session, error) {
	var browserContext struct {
		BrowserContextID string `json:"browserContextId"`
	}
	if err := c.call(ctx, "", "Target.createBrowserContext", map[string]interface{}{
		"disposeOnDetach": true,
	}, &browserContext); err != nil {
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	var target struct {
		TargetID string `json:"targetId"`
	}
	if err := c.call(ctx, "", "Target.createTarget", map[string]interface{}{
		"url":              "about:blank",
		"browserContextId": browserContext.BrowserContextID,
	}, &target); err != nil {
		return nil, fmt.Errorf("failed to create page target: %w", err)
	}

	var attach struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.call(ctx, "", "Target.attachToTarget", map[string]interface{}{
		"targetId": target.TargetID,
		"flatten":  true,
	}, &attach); err != nil {
		return nil, fmt.Errorf("failed to attach to target: %w", err)
	}

	s := &session{
		client:    c,
		sessionID: attach.SessionID,
		targetID:  target.TargetID,
		contextID: browserContext.BrowserContextID,
		log:       c.log.With().Str("account", account.Name).Logger(),
	}

	if err := s.configure(ctx, account); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// debuggerURL resolves the browser-level WebSocket URL from /json/version.
func (c *Client) debuggerURL(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/json/version", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create version request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("browser endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("browser endpoint returned status %d: %s", resp.StatusCode, string(detail))
	}

	var version struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&version); err != nil {
		return "", fmt.Errorf("failed to decode version response: %w", err)
	}
	if version.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("browser endpoint did not report a webSocketDebuggerUrl")
	}
	return version.WebSocketDebuggerURL, nil
}

// call sends one protocol command and decodes its result into out (when out
// is non-nil). Protocol errors are returned as Go errors.
func (c *Client) call(ctx context.Context, sessionID, method string, params interface{}, out interface{}) error {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return fmt.Errorf("not connected")
	}
	c.nextID++
	id := c.nextID
	ch := make(chan callResult, 1)
	c.pending[id] = ch
	c.mu.Unlock()

	data, err := json.Marshal(request{ID: id, SessionID: sessionID, Method: method, Params: params})
	if err != nil {
		c.dropPending(id)
		return fmt.Errorf("failed to marshal %s: %w", method, err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	err = conn.Write(writeCtx, websocket.MessageText, data)
	cancel()
	if err != nil {
		c.dropPending(id)
		return fmt.Errorf("failed to send %s: %w", method, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	select {
	case <-waitCtx.Done():
		c.dropPending(id)
		return fmt.Errorf("%s timed out: %w", method, waitCtx.Err())
	case res := <-ch:
		if res.err != nil {
			return fmt.Errorf("%s failed: %w", method, res.err)
		}
		if out != nil {
			if err := json.Unmarshal(res.result, out); err != nil {
				return fmt.Errorf("failed to decode %s result: %w", method, err)
			}
		}
		return nil
	}
}

func (c *Client) dropPending(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// readMessages dispatches responses to their pending callers. Protocol
// events (no id) are ignored; navigation and element readiness are polled
// instead of event-driven to keep the session surface small.
func (c *Client) readMessages(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.log.Warn().Err(err).Msg("DevTools read loop terminated")
			}
			return
		}

		var msg response
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Debug().Err(err).Msg("Unparseable DevTools message")
			continue
		}
		if msg.ID == 0 {
			continue // event, not a command response
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.ID]
		if ok {
			delete(c.pending, msg.ID)
		}
		c.mu.Unlock()
		if !ok {
			continue
		}

		if msg.Error != nil {
			ch <- callResult{err: fmt.Errorf("%s (code %d)", msg.Error.Message, msg.Error.Code)}
		} else {
			ch <- callResult{result: msg.Result}
		}
	}
}
