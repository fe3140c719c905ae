// Package transport carries engine commands to the chat server and push
// events back, framed as JSON over a websocket.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"livechat-engine/internal/domain"
	"livechat-engine/internal/metrics"
)

var (
	writeWait        = 10 * time.Second // time allowed to write a frame
	handshakeTimeout = 10 * time.Second
	maxFrameSize     = int64(1 << 20) // max inbound frame size (1MB)
)

// Frame is one event on the wire in either direction.
type Frame struct {
	Event domain.EventName `json:"event"`
	Data  json.RawMessage  `json:"data,omitempty"`
}

// Sink consumes decoded push events.
type Sink interface {
	Receive(ctx context.Context, name domain.EventName, data json.RawMessage)
}

// Socket is a client websocket connection to the chat server.
type Socket struct {
	conn   *websocket.Conn
	logger *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// Dial connects to url. A non-empty token is sent as a bearer credential.
func Dial(ctx context.Context, url, token string, logger *slog.Logger) (*Socket, error) {
	if logger == nil {
		logger = slog.Default()
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("transport: websocket dial: %w", err)
	}
	return &Socket{conn: conn, logger: logger}, nil
}

// Emit writes one command frame. A nil payload is sent without data.
func (s *Socket) Emit(ctx context.Context, event domain.EventName, payload any) error {
	f := Frame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("transport: marshal %s: %w", event, err)
		}
		f.Data = data
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("transport: set write deadline: %w", err)
	}
	if err := s.conn.WriteJSON(f); err != nil {
		return fmt.Errorf("transport: write %s: %w", event, err)
	}
	metrics.TransportFrames.WithLabelValues("out").Inc()
	return nil
}

// Listen reads frames and hands them to sink until the connection closes or
// ctx is done. A normal close from the server returns nil.
func (s *Socket) Listen(ctx context.Context, sink Sink) error {
	s.conn.SetReadLimit(maxFrameSize)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Info("transport closed by server")
				return nil
			}
			return fmt.Errorf("transport: read: %w", err)
		}
		metrics.TransportFrames.WithLabelValues("in").Inc()

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil || f.Event == "" {
			if err == nil {
				err = errors.New("missing event name")
			}
			metrics.EventsDropped.WithLabelValues("bad_frame").Inc()
			s.logger.Warn("dropping malformed frame", "err", err)
			continue
		}
		sink.Receive(ctx, f.Event, f.Data)
	}
}

// Close sends a close frame and releases the connection. It is safe to call
// more than once.
func (s *Socket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		err = s.conn.Close()
	})
	return err
}
