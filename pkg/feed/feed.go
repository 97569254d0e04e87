// Package feed streams dialog events to websocket subscribers.
//
// One Server fans a session's event stream out to any number of
// dashboard or tooling clients as JSON text messages. Delivery is
// lossy per client: a slow reader loses oldest events instead of
// stalling the session.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haivivi/tably/go/pkg/buffer"
	"github.com/haivivi/tably/go/pkg/dialog"
)

// Server defaults.
const (
	DefaultPath       = "/events"
	DefaultQueue      = 64
	DefaultPingPeriod = 30 * time.Second

	writeTimeout = 10 * time.Second
)

// Options configure a Server. Zero fields take the defaults.
type Options struct {
	// Path is the route Handler serves the stream on.
	Path string
	// Queue is the per-client event queue capacity.
	Queue int
	// PingPeriod is the keepalive interval.
	PingPeriod time.Duration

	Logger *slog.Logger
}

func (o *Options) withDefaults() Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.Path == "" {
		out.Path = DefaultPath
	}
	if out.Queue <= 0 {
		out.Queue = DefaultQueue
	}
	if out.PingPeriod <= 0 {
		out.PingPeriod = DefaultPingPeriod
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	return out
}

// Server broadcasts published events to connected websocket clients.
type Server struct {
	opts     Options
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewServer returns a Server ready to accept clients. opts may be nil.
func NewServer(opts *Options) *Server {
	o := opts.withDefaults()
	return &Server{
		opts: o,
		log:  o.Logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

type client struct {
	queue *buffer.Ring[dialog.Event]
	conn  *websocket.Conn

	mu   sync.Mutex // serializes conn writes
	done chan struct{}
	once sync.Once
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(messageType, data)
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.queue.CloseWrite()
		c.conn.Close()
	})
}

// Handler returns a mux serving the event stream on the configured
// path.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.opts.Path, s.serveWS)
	return mux
}

// ServeHTTP upgrades the request and streams events until the peer
// disconnects or the server closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.serveWS(w, r)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("feed: upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	c := &client{
		queue: buffer.NewRing[dialog.Event](s.opts.Queue),
		conn:  conn,
		done:  make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	n := len(s.clients)
	s.mu.Unlock()
	s.log.Info("feed: client connected", "remote", r.RemoteAddr, "clients", n)

	go s.readLoop(c)
	go s.pingLoop(c)
	s.writeLoop(c)

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
	s.log.Info("feed: client disconnected", "remote", r.RemoteAddr)
}

// readLoop consumes client frames so close and pong handling run, and
// tears the client down when the peer goes away.
func (s *Server) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.close()
			return
		}
	}
}

func (s *Server) pingLoop(c *client) {
	ticker := time.NewTicker(s.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for {
		ev, err := c.queue.Next()
		if err != nil {
			// Queue closed: drained the remaining events, say goodbye.
			c.write(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
		data, err := json.Marshal(ev)
		if err != nil {
			s.log.Warn("feed: marshal event", "type", ev.Type, "err", err)
			continue
		}
		if err := c.write(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// Publish queues ev to every connected client and never blocks.
func (s *Server) Publish(ev dialog.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.queue.Push(ev)
	}
}

// Forward pumps a controller subscription into the feed until the
// subscription closes.
func (s *Server) Forward(ctx context.Context, sub *buffer.Ring[dialog.Event]) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := sub.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("feed: subscription: %w", err)
		}
		s.Publish(ev)
	}
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client and rejects new ones. Each client's
// queue is drained before its connection receives a close frame.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	clear(s.clients)
	s.mu.Unlock()

	for _, c := range clients {
		c.queue.CloseWrite()
	}
	return nil
}

// ListenAndServe runs an HTTP server for the feed on addr until ctx is
// canceled, then shuts down and disconnects the clients.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		s.Close()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return fmt.Errorf("feed: shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("feed: serve %s: %w", addr, err)
	}
}
