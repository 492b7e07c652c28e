// Package transport implements the authenticated link to the local client
// API (spec §4.2): an HTTPS GET helper for one-shot resource fetches and a
// WebSocket event stream for the live feed, both scoped to loopback only.
package transport

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"

	"github.com/draftwatch/agent/internal/model"
)

// ErrKind classifies transport failures per spec §7.
type ErrKind string

const (
	ErrTransport ErrKind = "Transport" // dial/network failure
	ErrDecode    ErrKind = "Decode"    // malformed payload
	ErrAuth      ErrKind = "Auth"      // HTTP 401: credentials no longer valid
)

// Error wraps an ErrKind (or, for HTTP responses, the literal status code)
// with context.
type Error struct {
	Kind       ErrKind
	HTTPStatus int // 0 unless the failure was an HTTP response
	Err        error
}

func (e *Error) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("transport: http %d: %v", e.HTTPStatus, e.Err)
	}
	return fmt.Sprintf("transport: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// RawFrame is one undecoded WAMP frame off the event stream: [opcode, ...].
// Subscribe events arrive as [8, "OnJsonApiEvent", {uri,eventType,data}].
type RawFrame struct {
	Opcode  int
	URI     string
	Payload json.RawMessage
}

// loopbackOnly builds a TLS config that skips verification — safe only
// because every dial this package makes targets 127.0.0.1, never a network
// peer, and the client's cert is self-signed per connection.
func loopbackOnly() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true} //nolint:gosec // loopback-only, see doc comment
}

func basicAuthHeader(token string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(model.BasicAuthUser+":"+token))
}

// Client is the authenticated link to one running client instance. It is
// built fresh on every reconnect (credentials are single-use per spec's
// Generation semantics) and never retried internally — the supervisor owns
// retry policy.
type Client struct {
	creds  model.Credentials
	rest   *resty.Client
	dialer *websocket.Dialer
}

// New builds a Client bound to creds.
func New(creds model.Credentials) *Client {
	rest := resty.New().
		SetBaseURL(creds.BaseURL()).
		SetTLSClientConfig(loopbackOnly()).
		SetHeader("Authorization", basicAuthHeader(creds.AuthToken)).
		SetTimeout(5 * time.Second)

	dialer := &websocket.Dialer{
		TLSClientConfig:  loopbackOnly(),
		HandshakeTimeout: 5 * time.Second,
	}

	return &Client{creds: creds, rest: rest, dialer: dialer}
}

// Get issues an authenticated GET against path (e.g. "/lol-champ-select/v1/session")
// and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	resp, err := c.rest.R().SetContext(ctx).SetResult(out).Get(path)
	if err != nil {
		return &Error{Kind: ErrTransport, Err: err}
	}
	if resp.IsError() {
		kind := ErrKind("")
		if resp.StatusCode() == http.StatusUnauthorized {
			kind = ErrAuth
		}
		return &Error{Kind: kind, HTTPStatus: resp.StatusCode(), Err: fmt.Errorf("%s", resp.Status())}
	}
	return nil
}

// EventStream is a live connection to the client's event WebSocket.
type EventStream struct {
	conn *websocket.Conn
}

// wsURL is the local client event endpoint; every subscribable resource is
// reached through this single socket (spec §4.2/§6).
const wsURL = "/"

// OpenEvents dials the event WebSocket and subscribes to each uri in uris.
func (c *Client) OpenEvents(ctx context.Context, uris []string) (*EventStream, error) {
	headers := http.Header{"Authorization": {basicAuthHeader(c.creds.AuthToken)}}
	wsScheme := "wss"
	if c.creds.Protocol == "http" {
		wsScheme = "ws"
	}
	target := fmt.Sprintf("%s://%s:%d%s", wsScheme, c.creds.Host, c.creds.Port, wsURL)

	conn, _, err := c.dialer.DialContext(ctx, target, headers)
	if err != nil {
		return nil, &Error{Kind: ErrTransport, Err: err}
	}

	stream := &EventStream{conn: conn}
	for _, uri := range uris {
		if err := stream.subscribe(uri); err != nil {
			conn.Close()
			return nil, err
		}
	}
	return stream, nil
}

// subscribe sends a WAMP opcode-5 subscribe frame for uri.
func (s *EventStream) subscribe(uri string) error {
	frame := []any{5, uri}
	raw, err := json.Marshal(frame)
	if err != nil {
		return &Error{Kind: ErrDecode, Err: err}
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return &Error{Kind: ErrTransport, Err: err}
	}
	return nil
}

// Read blocks for the next frame off the stream. It returns ErrDecode for
// frames that don't parse as a WAMP event frame and lets the caller decide
// whether to skip or treat it as fatal; all other errors are ErrTransport
// (the socket is dead).
func (s *EventStream) Read() (RawFrame, error) {
	_, raw, err := s.conn.ReadMessage()
	if err != nil {
		return RawFrame{}, &Error{Kind: ErrTransport, Err: err}
	}

	var frame []json.RawMessage
	if err := json.Unmarshal(raw, &frame); err != nil || len(frame) < 3 {
		return RawFrame{}, &Error{Kind: ErrDecode, Err: fmt.Errorf("malformed frame")}
	}

	var opcode int
	if err := json.Unmarshal(frame[0], &opcode); err != nil {
		return RawFrame{}, &Error{Kind: ErrDecode, Err: err}
	}
	if opcode != 8 {
		return RawFrame{Opcode: opcode}, nil
	}

	var body struct {
		URI  string          `json:"uri"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frame[2], &body); err != nil {
		return RawFrame{}, &Error{Kind: ErrDecode, Err: err}
	}

	return RawFrame{Opcode: opcode, URI: body.URI, Payload: body.Data}, nil
}

// Close shuts down the underlying socket.
func (s *EventStream) Close() error {
	return s.conn.Close()
}
