package channel

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// DialWebsocket connects to a websocket endpoint acting as a virtual UART.
// Bytes travel in binary frames.
func DialWebsocket(url, origin string) (*Stream, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return NewStream(conn), nil
}

// WebsocketServer exposes a virtual UART over websocket. Each accepted
// connection becomes one Stream.
type WebsocketServer struct {
	Addr net.Addr

	server *http.Server
	connCh chan *wsConn
}

type wsConn struct {
	*websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

// Close releases the handler goroutine and closes the connection.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return c.Conn.Close()
}

// ServeWebsocket listens on addr and serves websocket connections at path.
func ServeWebsocket(addr, path string) (*WebsocketServer, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &WebsocketServer{
		Addr:   ln.Addr(),
		connCh: make(chan *wsConn),
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(s.handle))
	s.server = &http.Server{Handler: mux}
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			glog.Errorf("websocket server: %v", err)
		}
	}()
	return s, nil
}

func (s *WebsocketServer) handle(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	c := &wsConn{Conn: conn, done: make(chan struct{})}
	glog.Infof("websocket uart connected from %s", conn.Request().RemoteAddr)
	select {
	case s.connCh <- c:
		<-c.done
	case <-conn.Request().Context().Done():
	}
}

// Accept waits for the next connection.
func (s *WebsocketServer) Accept(ctx context.Context) (*Stream, error) {
	select {
	case c := <-s.connCh:
		return NewStream(c), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the server.
func (s *WebsocketServer) Close() error {
	return s.server.Close()
}

// Port returns a ByteChannel over the current connection of s.
func (s *WebsocketServer) Port() *Port {
	return &Port{server: s}
}

// Port is a ByteChannel bound to whichever host is connected to a
// WebsocketServer. Without a host it behaves like an idle line: Recv times
// out and Send discards.
type Port struct {
	server *WebsocketServer

	lock sync.Mutex
	cur  *Stream
}

func (p *Port) stream(timeout time.Duration) *Stream {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.cur != nil {
		return p.cur
	}
	ctx := context.Background()
	if timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if st, err := p.server.Accept(ctx); err == nil {
		p.cur = st
	}
	return p.cur
}

func (p *Port) drop(st *Stream, err error) {
	glog.Infof("websocket uart disconnected: %v", err)
	st.Close()
	p.lock.Lock()
	if p.cur == st {
		p.cur = nil
	}
	p.lock.Unlock()
}

// Recv implements ByteChannel. Waiting for a host counts against timeout.
func (p *Port) Recv(timeout time.Duration) (byte, error) {
	start := time.Now()
	st := p.stream(timeout)
	if st == nil {
		return 0, ErrTimeout
	}
	if timeout > 0 {
		if timeout -= time.Since(start); timeout <= 0 {
			return 0, ErrTimeout
		}
	}
	b, err := st.Recv(timeout)
	if err != nil && !IsTimeout(err) {
		p.drop(st, err)
		return 0, ErrTimeout
	}
	return b, err
}

// Send implements ByteChannel.
func (p *Port) Send(b []byte) error {
	p.lock.Lock()
	st := p.cur
	p.lock.Unlock()
	if st == nil {
		return nil
	}
	if err := st.Send(b); err != nil {
		p.drop(st, err)
	}
	return nil
}

// Flush implements Flusher.
func (p *Port) Flush() error {
	p.lock.Lock()
	st := p.cur
	p.lock.Unlock()
	if st == nil {
		return nil
	}
	return st.Flush()
}
