package bridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-globe/engine/camera"
	"github.com/Carmen-Shannon/oxy-globe/engine/drawable"
	"github.com/Carmen-Shannon/oxy-globe/engine/scene"
	"github.com/chewxy/math32"
	"github.com/gorilla/websocket"
)

// CameraState is the message pushed to clients so the chat side knows where the camera is.
type CameraState struct {
	Type   string  `json:"type"`
	Lat    float32 `json:"lat"`
	Lon    float32 `json:"lon"`
	Radius float32 `json:"radius"`
}

// reply answers a client message that could not be parsed.
type reply struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Bridge connects chat clients to the engine over websockets. Incoming messages are parsed
// into Commands and queued for the render thread; camera positions are broadcast back.
// Thread-safe for concurrent access.
type Bridge interface {
	// Handler returns the websocket endpoint.
	Handler() http.Handler

	// Commands returns the queue of parsed commands. The render thread drains it.
	Commands() <-chan Command

	// Broadcast sends a camera state to every connected client. Clients whose write fails
	// are dropped.
	Broadcast(state CameraState)

	// Publish broadcasts the state returned by source every interval until ctx is done.
	//
	// Parameters:
	//   - ctx: stops publishing
	//   - interval: time between broadcasts
	//   - source: returns the current camera state
	Publish(ctx context.Context, interval time.Duration, source func() CameraState)

	// ListenAndServe serves Handler on addr until ctx is done.
	//
	// Returns:
	//   - error: an error if the listener failed for a reason other than shutdown
	ListenAndServe(ctx context.Context, addr string) error

	// Clients returns the number of connected clients.
	Clients() int

	// Close disconnects every client.
	Close()
}

type bridge struct {
	mu *sync.RWMutex

	upgrader websocket.Upgrader
	clients  map[*websocket.Conn]*sync.Mutex
	commands chan Command
}

var _ Bridge = &bridge{}

// NewBridge creates a bridge whose command queue holds queueSize commands. When the queue
// is full new commands are dropped with a warning.
//
// Parameters:
//   - queueSize: the command queue capacity
//
// Returns:
//   - Bridge: the bridge
func NewBridge(queueSize int) Bridge {
	return &bridge{
		mu: &sync.RWMutex{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		commands: make(chan Command, max(queueSize, 1)),
	}
}

func (b *bridge) Handler() http.Handler {
	return http.HandlerFunc(b.handle)
}

func (b *bridge) Commands() <-chan Command {
	return b.commands
}

func (b *bridge) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	connMu := &sync.Mutex{}
	b.mu.Lock()
	b.clients[conn] = connMu
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
	}()
	slog.Info("bridge client connected", "remote", r.RemoteAddr)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Debug("bridge read ended", "remote", r.RemoteAddr, "error", err)
			}
			return
		}

		cmds, err := ParseCommands(string(msg))
		if err != nil {
			connMu.Lock()
			_ = conn.WriteJSON(reply{Type: "error", Error: err.Error()})
			connMu.Unlock()
			continue
		}
		for _, cmd := range cmds {
			select {
			case b.commands <- cmd:
			default:
				slog.Warn("bridge command queue full, dropping command", "type", cmd.Type)
			}
		}
	}
}

func (b *bridge) Broadcast(state CameraState) {
	state.Type = "camera"

	b.mu.RLock()
	var failed []*websocket.Conn
	for conn, connMu := range b.clients {
		connMu.Lock()
		err := conn.WriteJSON(state)
		connMu.Unlock()
		if err != nil {
			failed = append(failed, conn)
		}
	}
	b.mu.RUnlock()

	if len(failed) == 0 {
		return
	}
	b.mu.Lock()
	for _, conn := range failed {
		delete(b.clients, conn)
		conn.Close()
	}
	b.mu.Unlock()
}

func (b *bridge) Publish(ctx context.Context, interval time.Duration, source func() CameraState) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last CameraState
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			state := source()
			if state == last || b.Clients() == 0 {
				continue
			}
			b.Broadcast(state)
			last = state
		}
	}
}

func (b *bridge) ListenAndServe(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/ws", b.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		b.Close()
	}()

	slog.Info("bridge listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (b *bridge) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		conn.Close()
		delete(b.clients, conn)
	}
}

// Execute applies a command to the camera and scene. It runs on the render thread.
//
// Parameters:
//   - cmd: the command to apply
//   - cam: the shared camera
//   - s: the scene holding the drawable to rotate
//
// Returns:
//   - error: ErrInvalidCommand, or the scene's ErrNotFound / ErrNotRotatable
func Execute(cmd Command, cam camera.Camera, s scene.Scene) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	switch cmd.Type {
	case CommandReposition:
		_, _, radius := cam.SphericalPosition()
		cam.SetSphericalPosition(radius, cmd.Lat, cmd.Lon)
	case CommandMove:
		cam.CancelAnimation()
		cam.SetPosition(cmd.Position)
	case CommandRotate:
		id := cmd.ID
		if id == "" {
			found, ok := s.Find(drawable.KindSphere)
			if !ok {
				return fmt.Errorf("%w: no globe to rotate", scene.ErrNotFound)
			}
			id = found
		}
		axis, _ := AxisVector(cmd.Axis)
		return s.Rotate(id, axis, cmd.Degrees*math32.Pi/180)
	}
	return nil
}

// StateOf reads the camera's spherical position as a CameraState.
func StateOf(cam camera.Camera) CameraState {
	lat, lon, radius := cam.SphericalPosition()
	return CameraState{Type: "camera", Lat: lat, Lon: lon, Radius: radius}
}
