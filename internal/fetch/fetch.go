// Package fetch is a pooled QUIC client for Mark servers.
package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/SimonMacLean/Website-Display/internal/protocol"
	"github.com/quic-go/quic-go"
)

// ParseMarkURL splits a mark:// URL into host (with default port) and path.
func ParseMarkURL(raw string) (host, path string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "mark" {
		return "", "", fmt.Errorf("unsupported scheme: %s (expected mark://)", u.Scheme)
	}
	host = u.Host
	if u.Port() == "" {
		host = fmt.Sprintf("%s:%d", u.Hostname(), protocol.DefaultPort)
	}
	path = u.Path
	if path == "" {
		path = "/"
	}
	return host, path, nil
}

// Options configures client behavior.
type Options struct {
	Insecure       bool
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	MaxRetries     int
	Logger         *slog.Logger
}

func (o *Options) applyDefaults() {
	if o.DialTimeout == 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.RequestTimeout == 0 {
		o.RequestTimeout = 10 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Client keeps one QUIC connection per host and retries transient failures.
type Client struct {
	opts    Options
	tlsConf *tls.Config
	mu      sync.Mutex
	conns   map[string]*quic.Conn
}

// NewClient creates a client with the given options.
func NewClient(opts Options) *Client {
	opts.applyDefaults()
	return &Client{
		opts: opts,
		tlsConf: &tls.Config{
			InsecureSkipVerify: opts.Insecure,
			NextProtos:         []string{protocol.ALPN},
		},
		conns: make(map[string]*quic.Conn),
	}
}

// Close closes all pooled connections.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for host, conn := range c.conns {
		conn.CloseWithError(0, "")
		delete(c.conns, host)
	}
}

// Fetch retrieves the document at path from host.
func (c *Client) Fetch(ctx context.Context, host, path string) (protocol.Response, error) {
	req := protocol.Fetch(path)
	if err := req.Validate(); err != nil {
		return protocol.Response{}, err
	}

	const baseBackoff = 100 * time.Millisecond
	var lastErr error
	for attempt := range c.opts.MaxRetries {
		resp, err := c.roundTrip(ctx, host, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil || !isTransientError(err) || attempt == c.opts.MaxRetries-1 {
			break
		}
		c.removeConn(host)
		backoff := baseBackoff << attempt
		backoff += rand.N(backoff / 2)
		c.opts.Logger.Debug("mark retry", "host", host, "path", path, "attempt", attempt+1, "backoff", backoff, "error", err)
		select {
		case <-ctx.Done():
			return protocol.Response{}, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return protocol.Response{}, lastErr
}

// roundTrip opens a stream, sends req and reads the response.
func (c *Client) roundTrip(ctx context.Context, host string, req protocol.Request) (protocol.Response, error) {
	conn, err := c.getConn(ctx, host)
	if err != nil {
		return protocol.Response{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetDeadline(deadline)
	}

	if _, err := req.WriteTo(stream); err != nil {
		return protocol.Response{}, fmt.Errorf("send request: %w", err)
	}
	stream.Close()

	resp, err := protocol.ParseResponse(stream)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("read response: %w", err)
	}
	return resp, nil
}

func (c *Client) getConn(ctx context.Context, host string) (*quic.Conn, error) {
	c.mu.Lock()
	conn, ok := c.conns[host]
	c.mu.Unlock()

	if ok {
		if conn.Context().Err() == nil {
			return conn, nil
		}
		c.removeConn(host)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	conn, err := quic.DialAddr(ctx, host, c.tlsConf, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", host, err)
	}

	c.mu.Lock()
	c.conns[host] = conn
	c.mu.Unlock()
	return conn, nil
}

func (c *Client) removeConn(host string) {
	c.mu.Lock()
	delete(c.conns, host)
	c.mu.Unlock()
}

func isTransientError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return true
	}
	msg := err.Error()
	switch {
	case strings.HasSuffix(msg, "EOF"):
		return true
	case strings.Contains(msg, "no recent network activity"):
		return true
	case strings.Contains(msg, "connection refused"):
		return true
	case strings.Contains(msg, "connection reset"):
		return true
	}
	return false
}
