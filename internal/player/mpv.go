// Package player drives an external mpv process over its JSON IPC socket.
package player

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxtui/vox/internal/playback"
)

const (
	connectRetries  = 20
	connectInterval = 100 * time.Millisecond
	requestTimeout  = 2 * time.Second
)

// Factory launches mpv handles. Implements playback.Factory.
type Factory struct {
	command string
	args    []string
	logger  *slog.Logger
}

// NewFactory returns a factory that launches the configured player command.
// An empty command defaults to "mpv".
func NewFactory(command string, args []string, logger *slog.Logger) *Factory {
	if command == "" {
		command = "mpv"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{command: command, args: args, logger: logger}
}

// Open launches an mpv process for url, paused, and connects to its IPC
// socket. The returned handle emits lifecycle events until Close.
func (f *Factory) Open(url string) (playback.Media, error) {
	socket := filepath.Join(os.TempDir(), fmt.Sprintf("vox-mpv-%s.sock", uuid.NewString()))

	args := append([]string{}, f.args...)
	args = append(args,
		"--no-video",
		"--idle=no",
		"--pause",
		"--input-ipc-server="+socket,
		url,
	)

	cmd := exec.Command(f.command, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launching %s: %w", f.command, err)
	}

	f.logger.Info("launched player", "command", f.command, "socket", socket, "pid", cmd.Process.Pid)

	conn, err := dialWithRetry(socket)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.Remove(socket)
		return nil, fmt.Errorf("connecting to player socket: %w", err)
	}

	h := &handle{
		cmd:     cmd,
		conn:    conn,
		socket:  socket,
		logger:  f.logger,
		events:  make(chan playback.Event, 16),
		pending: make(map[int]chan response),
	}
	go h.readLoop()
	if err := h.observe(); err != nil {
		h.Close()
		return nil, fmt.Errorf("subscribing to player properties: %w", err)
	}
	return h, nil
}

func dialWithRetry(socket string) (net.Conn, error) {
	var lastErr error
	for i := 0; i < connectRetries; i++ {
		conn, err := net.Dial("unix", socket)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(connectInterval)
	}
	return nil, lastErr
}

// request is an outgoing IPC command.
type request struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id"`
}

// response is an incoming IPC reply or event.
type response struct {
	Error     string          `json:"error"`
	Data      json.RawMessage `json:"data"`
	RequestID int             `json:"request_id"`
	Event     string          `json:"event"`
	Name      string          `json:"name"`
	Reason    string          `json:"reason"`
}

// handle is one mpv process bound to one media URL. Implements playback.Media.
type handle struct {
	cmd    *exec.Cmd
	conn   net.Conn
	socket string
	logger *slog.Logger
	events chan playback.Event

	mu      sync.Mutex
	nextID  int
	pending map[int]chan response
	ready   bool
	closed  bool
}

func (h *handle) Events() <-chan playback.Event { return h.events }

func (h *handle) Ready() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ready
}

func (h *handle) Play() error {
	return h.setProperty("pause", false)
}

func (h *handle) Pause() error {
	return h.setProperty("pause", true)
}

func (h *handle) Seek(seconds float64) error {
	return h.setProperty("time-pos", seconds)
}

func (h *handle) Position() (float64, error) {
	return h.getFloat("time-pos")
}

func (h *handle) Duration() (float64, error) {
	return h.getFloat("duration")
}

// Close shuts the player down: quit over IPC, then kill as a backstop.
func (h *handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.send([]any{"quit"})
	h.conn.Close()

	done := make(chan struct{})
	go func() {
		h.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(requestTimeout):
		h.cmd.Process.Kill()
		<-done
	}

	os.Remove(h.socket)
	return nil
}

// observe subscribes to the pause property so external flips surface as
// events.
func (h *handle) observe() error {
	_, err := h.roundTrip([]any{"observe_property", 1, "pause"})
	return err
}

func (h *handle) setProperty(name string, value any) error {
	_, err := h.roundTrip([]any{"set_property", name, value})
	return err
}

func (h *handle) getFloat(name string) (float64, error) {
	data, err := h.roundTrip([]any{"get_property", name})
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	return v, nil
}

// roundTrip sends a command and waits for its matching reply.
func (h *handle) roundTrip(command []any) (json.RawMessage, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, errors.New("player closed")
	}
	h.nextID++
	id := h.nextID
	ch := make(chan response, 1)
	h.pending[id] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
	}()

	if err := h.write(request{Command: command, RequestID: id}); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("player command failed: %s", resp.Error)
		}
		return resp.Data, nil
	case <-time.After(requestTimeout):
		return nil, errors.New("player command timed out")
	}
}

// send fires a command without waiting for a reply.
func (h *handle) send(command []any) {
	h.write(request{Command: command})
}

func (h *handle) write(req request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	if _, err := h.conn.Write(payload); err != nil {
		return fmt.Errorf("writing to player socket: %w", err)
	}
	return nil
}

// readLoop consumes the IPC stream, routing replies to waiters and
// translating mpv events into playback events. The events channel closes
// when the stream ends.
func (h *handle) readLoop() {
	defer close(h.events)

	scanner := bufio.NewScanner(h.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var resp response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			h.logger.Debug("discarding unparsable player message", "error", err)
			continue
		}

		if resp.RequestID != 0 {
			h.mu.Lock()
			ch, ok := h.pending[resp.RequestID]
			h.mu.Unlock()
			if ok {
				ch <- resp
			}
			continue
		}

		switch resp.Event {
		case "file-loaded":
			h.mu.Lock()
			h.ready = true
			h.mu.Unlock()
			h.emit(playback.Event{Kind: playback.EventReady})
		case "end-file":
			if resp.Reason == "error" {
				h.emit(playback.Event{Kind: playback.EventFailed, Err: errors.New("player reported a media error")})
			} else if resp.Reason == "eof" {
				h.emit(playback.Event{Kind: playback.EventEnded})
			}
		case "property-change":
			if resp.Name == "pause" {
				var paused bool
				if err := json.Unmarshal(resp.Data, &paused); err != nil {
					continue
				}
				if paused {
					h.emit(playback.Event{Kind: playback.EventPaused})
				} else {
					h.emit(playback.Event{Kind: playback.EventUnpaused})
				}
			}
		}
	}
}

// emit delivers an event without blocking the read loop.
func (h *handle) emit(ev playback.Event) {
	select {
	case h.events <- ev:
	default:
		h.logger.Warn("dropping player event, consumer too slow", "kind", ev.Kind)
	}
}
