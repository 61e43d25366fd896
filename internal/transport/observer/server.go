// Package observer streams the simulation to read-only renderers over
// websockets on the loopback interface.
package observer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ranchsim/server/internal/core/event"
	"github.com/ranchsim/server/internal/protocol"
	"go.uber.org/zap"
)

const clientQueue = 256

type client struct {
	id  uint64
	out chan []byte
}

// Server fans out SPAWN, DESPAWN and FRAME messages to every connected
// observer. Publishing happens on the simulation goroutine and never blocks:
// a client whose queue is full misses that message.
type Server struct {
	runID string
	log   *zap.Logger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	dropped  atomic.Uint64

	mu      sync.Mutex
	clients map[uint64]*client
	tick    uint64
	balance float64
	scene   map[uint64]protocol.Sprite
}

// NewServer creates a server and subscribes it to the render events on bus.
func NewServer(runID string, balance float64, bus *event.Bus, log *zap.Logger) *Server {
	s := &Server{
		runID:   runID,
		log:     log,
		balance: balance,
		clients: make(map[uint64]*client),
		scene:   make(map[uint64]protocol.Sprite),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     isLoopbackOrigin,
		},
	}
	event.Subscribe(bus, s.onSpawned)
	event.Subscribe(bus, s.onSold)
	return s
}

func (s *Server) onSpawned(ev event.LivestockSpawned) {
	sp := protocol.Sprite{
		Transform: protocol.Transform{Entity: uint64(ev.Entity), X: ev.X, Y: ev.Y},
		Sprite:    ev.Sprite,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick, s.balance = ev.Tick, ev.Balance
	s.scene[sp.Entity] = sp
	s.publishLocked(protocol.NewSpawn(ev.Tick, sp, ev.Balance))
}

func (s *Server) onSold(ev event.LivestockSold) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick, s.balance = ev.Tick, ev.Balance
	delete(s.scene, uint64(ev.Entity))
	s.publishLocked(protocol.NewDespawn(ev.Tick, uint64(ev.Entity), ev.Payout, ev.Balance))
}

// BroadcastFrame records the latest transforms and sends the frame.
func (s *Server) BroadcastFrame(msg protocol.FrameMsg) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick, s.balance = msg.Tick, msg.Balance
	for _, tr := range msg.Livestock {
		if sp, ok := s.scene[tr.Entity]; ok {
			sp.Transform = tr
			s.scene[tr.Entity] = sp
		}
	}
	s.publishLocked(msg)
}

func (s *Server) publishLocked(msg any) {
	if len(s.clients) == 0 {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("observer encode failed", zap.Error(err))
		return
	}
	for _, c := range s.clients {
		select {
		case c.out <- b:
		default:
			s.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected observers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Dropped returns how many messages were skipped for slow observers.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

// Handler serves GET /bootstrap and the /ws stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/bootstrap", s.BootstrapHandler())
	mux.HandleFunc("/ws", s.WSHandler())
	return mux
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		s.mu.Lock()
		resp := protocol.BootstrapResponse{
			ProtocolVersion: protocol.Version,
			RunID:           s.runID,
			Tick:            s.tick,
			Balance:         s.balance,
			Livestock:       len(s.scene),
		}
		s.mu.Unlock()

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		c, err := s.join()
		if err != nil {
			s.log.Error("observer join failed", zap.Error(err))
			return
		}
		defer s.leave(c.id)
		s.log.Info("observer joined", zap.Uint64("observer", c.id), zap.String("remote", r.RemoteAddr))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Observers are read-only; the reader only notices disconnects.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
		s.log.Info("observer left", zap.Uint64("observer", c.id))
	}
}

// join registers a client with the SNAPSHOT already queued, under the same
// lock publishers take, so the client sees every later message exactly once.
func (s *Server) join() (*client, error) {
	c := &client{id: s.nextID.Add(1), out: make(chan []byte, clientQueue)}

	s.mu.Lock()
	defer s.mu.Unlock()
	sprites := make([]protocol.Sprite, 0, len(s.scene))
	for _, sp := range s.scene {
		sprites = append(sprites, sp)
	}
	sort.Slice(sprites, func(i, j int) bool { return sprites[i].Entity < sprites[j].Entity })
	b, err := json.Marshal(protocol.NewSnapshot(s.runID, s.tick, s.balance, sprites))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	c.out <- b
	s.clients[c.id] = c
	return c, nil
}

func (s *Server) leave(id uint64) {
	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
}

// ListenAndServe serves on addr until ctx is done. addr must resolve to a
// loopback host.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	if err := requireLoopback(addr); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("observer listen: %w", err)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	s.log.Info("observer listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("observer serve: %w", err)
	}
	return nil
}

func requireLoopback(addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("observer bind %q: %w", addr, err)
	}
	if host == "localhost" {
		return nil
	}
	if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
		return fmt.Errorf("observer bind %q: not a loopback address", addr)
	}
	return nil
}

// isLoopbackOrigin accepts non-browser clients (no Origin header) and pages
// served from a loopback host. Any other web page is refused.
func isLoopbackOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
