// Package discord implements the chat transport over the Discord gateway
// and REST API. It satisfies messaging.Service; nothing outside this package
// touches the wire format.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harborlight-labs/shepherd/internal/messaging"
)

// Default endpoints; overridable for tests.
const (
	DefaultGatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"
	DefaultAPIBase    = "https://discord.com/api/v10"

	eventBuffer    = 64
	requestTimeout = 15 * time.Second
)

// Opts holds configuration for the Discord client.
type Opts struct {
	Token      string
	GatewayURL string
	APIBase    string
}

// Option configures the Discord client.
type Option func(*Opts)

// WithToken sets the bot token.
func WithToken(token string) Option {
	return func(o *Opts) { o.Token = token }
}

// WithGatewayURL overrides the gateway endpoint.
func WithGatewayURL(url string) Option {
	return func(o *Opts) { o.GatewayURL = url }
}

// WithAPIBase overrides the REST endpoint.
func WithAPIBase(url string) Option {
	return func(o *Opts) { o.APIBase = url }
}

// Client is the gateway + REST transport.
type Client struct {
	token      string
	gatewayURL string
	apiBase    string
	httpc      *http.Client

	events chan messaging.Event

	mu      sync.Mutex
	conn    *websocket.Conn
	seq     int64
	stopped chan struct{}
	wg      sync.WaitGroup

	// dmChannels caches user ID -> DM channel ID.
	dmMu       sync.Mutex
	dmChannels map[string]string
}

// NewClient creates a Discord transport. A bot token is required.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("bot token not set")
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = DefaultGatewayURL
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}

	return &Client{
		token:      cfg.Token,
		gatewayURL: cfg.GatewayURL,
		apiBase:    cfg.APIBase,
		httpc:      &http.Client{Timeout: requestTimeout},
		events:     make(chan messaging.Event, eventBuffer),
		stopped:    make(chan struct{}),
		dmChannels: make(map[string]string),
	}, nil
}

// Events returns the inbound event stream.
func (c *Client) Events() <-chan messaging.Event {
	return c.events
}

// Start dials the gateway and begins reading events. The connection is
// re-dialed with backoff until Stop is called or ctx is canceled.
func (c *Client) Start(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("gateway dial: %w", err)
	}
	c.setConn(conn)

	c.wg.Add(1)
	go c.runLoop(ctx, conn)
	slog.Info("discord gateway connected")
	return nil
}

// Stop disconnects the gateway and closes the event stream.
func (c *Client) Stop() error {
	close(c.stopped)
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
	}
	c.mu.Unlock()
	c.wg.Wait()
	close(c.events)
	slog.Info("discord gateway disconnected")
	return nil
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.gatewayURL, nil)
	return conn, err
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
}

// runLoop reads gateway frames, reconnecting with backoff until stopped.
func (c *Client) runLoop(ctx context.Context, conn *websocket.Conn) {
	defer c.wg.Done()

	backoff := time.Second
	for {
		if conn != nil {
			err := c.readFrames(ctx, conn)
			conn.Close()
			conn = nil
			slog.Warn("gateway connection lost", "error", err)
		}

		select {
		case <-c.stopped:
			return
		case <-ctx.Done():
			return
		default:
		}

		timer := time.NewTimer(backoff)
		select {
		case <-c.stopped:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}

		next, err := c.dial(ctx)
		if err != nil {
			slog.Error("gateway redial failed", "error", err, "next_backoff", backoff)
			continue
		}
		backoff = time.Second
		conn = next
		c.setConn(conn)
		slog.Info("discord gateway reconnected")
	}
}

// readFrames processes one connection until it fails.
func (c *Client) readFrames(ctx context.Context, conn *websocket.Conn) error {
	heartbeatStop := make(chan struct{})
	defer close(heartbeatStop)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var payload gatewayPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			slog.Warn("undecodable gateway frame", "error", err)
			continue
		}
		if payload.S != nil {
			c.mu.Lock()
			c.seq = *payload.S
			c.mu.Unlock()
		}

		switch payload.Op {
		case opHello:
			var hello helloData
			if err := json.Unmarshal(payload.D, &hello); err != nil {
				return fmt.Errorf("decode hello: %w", err)
			}
			c.startHeartbeat(conn, time.Duration(hello.HeartbeatInterval)*time.Millisecond, heartbeatStop)
			if err := c.identify(conn); err != nil {
				return fmt.Errorf("identify: %w", err)
			}
		case opHeartbeatACK:
			// Nothing to do.
		case opDispatch:
			c.dispatch(ctx, payload)
		}
	}
}

func (c *Client) startHeartbeat(conn *websocket.Conn, interval time.Duration, stop <-chan struct{}) {
	if interval <= 0 {
		interval = 41250 * time.Millisecond
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-c.stopped:
				return
			case <-ticker.C:
				c.mu.Lock()
				seq := c.seq
				err := conn.WriteJSON(gatewayPayload{Op: opHeartbeat, D: mustMarshal(seq)})
				c.mu.Unlock()
				if err != nil {
					slog.Warn("heartbeat write failed", "error", err)
					return
				}
			}
		}
	}()
}

func (c *Client) identify(conn *websocket.Conn) error {
	intents := intentGuilds | intentGuildMessages | intentDirectMessages | intentMessageContent
	data := identifyData{
		Token:   c.token,
		Intents: intents,
		Properties: identifyProperties{
			OS:      "linux",
			Browser: "shepherd",
			Device:  "shepherd",
		},
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return conn.WriteJSON(gatewayPayload{Op: opIdentify, D: mustMarshal(data)})
}

// dispatch maps a gateway dispatch frame onto the event stream.
func (c *Client) dispatch(ctx context.Context, payload gatewayPayload) {
	switch payload.T {
	case "READY":
		slog.Info("discord gateway ready")
	case "MESSAGE_CREATE":
		ev, err := mapMessageCreate(payload.D)
		if err != nil {
			slog.Warn("undecodable MESSAGE_CREATE", "error", err)
			return
		}
		c.deliver(ctx, ev)
	case "INTERACTION_CREATE":
		ev, ok, err := mapInteractionCreate(payload.D)
		if err != nil {
			slog.Warn("undecodable INTERACTION_CREATE", "error", err)
			return
		}
		if ok {
			c.deliver(ctx, ev)
		}
	}
}

func (c *Client) deliver(ctx context.Context, ev messaging.Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	case <-c.stopped:
	}
}

// SendDirectMessage opens (or reuses) the user's DM channel and delivers the
// message there. A 403 from the API maps to messaging.ErrDeliveryForbidden.
func (c *Client) SendDirectMessage(ctx context.Context, userID string, msg messaging.Message) error {
	channelID, err := c.dmChannelFor(ctx, userID)
	if err != nil {
		return err
	}
	return c.SendChannelMessage(ctx, channelID, msg)
}

func (c *Client) dmChannelFor(ctx context.Context, userID string) (string, error) {
	c.dmMu.Lock()
	cached, ok := c.dmChannels[userID]
	c.dmMu.Unlock()
	if ok {
		return cached, nil
	}

	var ch dmChannel
	if err := c.rest(ctx, http.MethodPost, "/users/@me/channels", createDMBody{RecipientID: userID}, &ch); err != nil {
		return "", err
	}

	c.dmMu.Lock()
	c.dmChannels[userID] = ch.ID
	c.dmMu.Unlock()
	return ch.ID, nil
}

// SendChannelMessage posts a message (with optional buttons) to a channel.
func (c *Client) SendChannelMessage(ctx context.Context, channelID string, msg messaging.Message) error {
	body := messageBody{Content: msg.Content, Components: buildComponents(msg.Buttons)}
	return c.rest(ctx, http.MethodPost, "/channels/"+channelID+"/messages", body, nil)
}

// RespondEphemeral answers an interaction with a message only the invoking
// user sees.
func (c *Client) RespondEphemeral(ctx context.Context, ref messaging.InteractionRef, content string) error {
	resp := interactionResponse{
		Type: callbackChannelMessage,
		Data: &interactionResponseData{Content: content, Flags: flagEphemeral},
	}
	return c.rest(ctx, http.MethodPost, "/interactions/"+ref.ID+"/"+ref.Token+"/callback", resp, nil)
}

// AckComponent acknowledges a button click without visible output.
func (c *Client) AckComponent(ctx context.Context, ref messaging.InteractionRef) error {
	resp := interactionResponse{Type: callbackDeferredUpdate}
	return c.rest(ctx, http.MethodPost, "/interactions/"+ref.ID+"/"+ref.Token+"/callback", resp, nil)
}

// ResolveRoleByName finds a guild role by case-insensitive name.
func (c *Client) ResolveRoleByName(ctx context.Context, guildID, name string) (string, bool, error) {
	var roles []wireRole
	if err := c.rest(ctx, http.MethodGet, "/guilds/"+guildID+"/roles", nil, &roles); err != nil {
		return "", false, err
	}
	for _, role := range roles {
		if strings.EqualFold(role.Name, name) {
			return role.ID, true, nil
		}
	}
	return "", false, nil
}

// rest performs one authenticated REST call, decoding the response into out
// when non-nil.
func (c *Client) rest(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("discord api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		return messaging.ErrDeliveryForbidden
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Error("discord api error", "method", method, "path", path, "status", resp.StatusCode, "body", string(detail))
		return fmt.Errorf("discord api %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// Only reachable for unmarshalable types, which would be a
		// programming error.
		panic(err)
	}
	return data
}
