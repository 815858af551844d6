package echoServer

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// room for the request line on top of the header limit net/http enforces
const maxHeadBytes = http.DefaultMaxHeaderBytes + 8<<10

const maxRequestLineLog = 256

// workerSeq numbers accepted connections for the whole process.
var workerSeq atomic.Uint64

func nextWorker() string {
	return fmt.Sprintf("worker-%d", workerSeq.Add(1))
}

type connKey struct{}

// recordingListener hands out connections that keep a copy of the raw
// request head, so header lines can be echoed in wire order.
type recordingListener struct {
	net.Listener
}

func (l recordingListener) Accept() (net.Conn, error) {
	c, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}

	return &recordingConn{Conn: c, worker: nextWorker()}, nil
}

type recordingConn struct {
	net.Conn
	worker string
	served atomic.Bool

	mu       sync.Mutex
	head     bytes.Buffer
	done     bool
	complete bool
}

func (c *recordingConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 {
		c.record(p[:n])
	}
	return n, err
}

func (c *recordingConn) record(b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return
	}

	c.head.Write(b)
	if end := headEnd(c.head.Bytes()); end >= 0 {
		c.head.Truncate(end)
		c.done, c.complete = true, true
		return
	}
	if c.head.Len() > maxHeadBytes {
		c.done = true
	}
}

// Head returns the request line and header block, or nil when the head
// was not fully seen.
func (c *recordingConn) Head() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.complete {
		return nil
	}
	return append([]byte(nil), c.head.Bytes()...)
}

// RequestLine returns the first line read from the connection, possibly
// truncated.
func (c *recordingConn) RequestLine() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.head.Bytes()
	if i := bytes.IndexByte(b, '\n'); i >= 0 {
		b = b[:i]
	}
	if len(b) > maxRequestLineLog {
		b = b[:maxRequestLineLog]
	}
	return strings.TrimSuffix(string(b), "\r")
}

// headEnd returns the offset just past the empty line ending the head,
// accepting bare LF line endings like net/http does, or -1.
func headEnd(b []byte) int {
	end := -1
	if i := bytes.Index(b, []byte("\n\r\n")); i >= 0 {
		end = i + 3
	}
	if i := bytes.Index(b, []byte("\n\n")); i >= 0 && (end < 0 || i+2 < end) {
		end = i + 2
	}
	return end
}

func connContext(ctx context.Context, c net.Conn) context.Context {
	if rc, ok := c.(*recordingConn); ok {
		return context.WithValue(ctx, connKey{}, rc)
	}
	return ctx
}

func connFrom(ctx context.Context) (*recordingConn, bool) {
	rc, ok := ctx.Value(connKey{}).(*recordingConn)
	return rc, ok
}
