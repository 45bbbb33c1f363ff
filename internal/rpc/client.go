package rpc

import (
	"bufio"
	"fmt"
	"net"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/dreamware/colony/internal/metrics"
)

// DefaultTimeout bounds a single request/response exchange.
const DefaultTimeout = 1500 * time.Millisecond

const poolSize = 64

// pooledConn is one reusable connection to a peer. The mutex serializes
// exchanges so concurrent callers never interleave frames.
type pooledConn struct {
	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
	dead bool
}

func (p *pooledConn) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dead = true
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

// Client issues request/response exchanges to worker RPC servers.
// Connections are pooled per address and reused across calls; losing one is
// never fatal because the next call dials fresh.
type Client struct {
	timeout time.Duration
	log     *zap.Logger

	mu    sync.Mutex
	conns *lru.Cache[string, *pooledConn]
}

// NewClient returns a client with the default exchange timeout.
func NewClient(log *zap.Logger) *Client {
	conns, _ := lru.NewWithEvict[string, *pooledConn](poolSize, func(_ string, p *pooledConn) {
		p.close()
	})
	return &Client{
		timeout: DefaultTimeout,
		log:     log,
		conns:   conns,
	}
}

// SetTimeout overrides the per-exchange timeout. Intended for tests.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Call sends req to addr and returns the peer's response.
func (c *Client) Call(addr string, req Request) (Response, error) {
	p, err := c.conn(addr)
	if err != nil {
		metrics.RPCClientErrors.WithLabelValues(addr).Inc()
		return nil, err
	}

	resp, err := c.exchange(p, req)
	if err != nil {
		// The stream may hold a half-written frame; the connection
		// cannot be trusted for another exchange.
		c.drop(addr, p)
		metrics.RPCClientErrors.WithLabelValues(addr).Inc()
		return nil, fmt.Errorf("rpc to %s: %w", addr, err)
	}
	return resp, nil
}

func (c *Client) exchange(p *pooledConn, req Request) (Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.dead || p.conn == nil {
		return nil, fmt.Errorf("connection closed")
	}

	deadline := time.Now().Add(c.timeout)
	if err := p.conn.SetDeadline(deadline); err != nil {
		return nil, err
	}
	if err := WriteMessage(p.conn, req); err != nil {
		return nil, err
	}
	msg, err := ReadMessage(p.r)
	if err != nil {
		return nil, err
	}

	switch m := msg.(type) {
	case *ErrorResponse:
		return nil, fmt.Errorf("peer error: %s", m.Message)
	case Response:
		return m, nil
	default:
		return nil, fmt.Errorf("unexpected message type %T", msg)
	}
}

func (c *Client) conn(addr string) (*pooledConn, error) {
	c.mu.Lock()
	if p, ok := c.conns.Get(addr); ok && !p.dead {
		c.mu.Unlock()
		return p, nil
	}
	c.mu.Unlock()

	conn, err := net.DialTimeout("tcp", addr, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	p := &pooledConn{conn: conn, r: bufio.NewReader(conn)}

	c.mu.Lock()
	c.conns.Add(addr, p)
	c.mu.Unlock()
	return p, nil
}

func (c *Client) drop(addr string, p *pooledConn) {
	p.close()
	c.mu.Lock()
	if cur, ok := c.conns.Get(addr); ok && cur == p {
		c.conns.Remove(addr)
	}
	c.mu.Unlock()
}

// Close releases all pooled connections.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conns.Purge()
}
