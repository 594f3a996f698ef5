package visibility

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// KeepAliveWriter writes one keep-alive frame.
// Returns an error once the connection is gone.
type KeepAliveWriter interface {
	WriteKeepAlive() error
}

// TickerKeepAlive sends keep-alive frames at a fixed interval until stopped
// or until a write fails
type TickerKeepAlive struct {
	interval time.Duration
	done     chan struct{}
}

// NewTickerKeepAlive creates a ticker-based keep-alive
func NewTickerKeepAlive(interval time.Duration) *TickerKeepAlive {
	return &TickerKeepAlive{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Start begins sending keep-alive frames. The returned channel closes when
// the keep-alive terminates, either from Stop or a failed write.
func (k *TickerKeepAlive) Start(writer KeepAliveWriter, logger *slog.Logger) <-chan struct{} {
	ticker := time.NewTicker(k.interval)
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := writer.WriteKeepAlive(); err != nil {
					logger.Debug("keep-alive write failed, stopping", "error", err)
					return
				}
			case <-k.done:
				return
			}
		}
	}()

	return stopped
}

// Stop terminates the keep-alive. Safe to call multiple times.
func (k *TickerKeepAlive) Stop() {
	select {
	case <-k.done:
	default:
		close(k.done)
	}
}

// pingWriter sends websocket ping control frames.
// WriteControl may run concurrently with the connection's data writer.
type pingWriter struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (p *pingWriter) WriteKeepAlive() error {
	if err := p.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(p.timeout)); err != nil {
		return fmt.Errorf("write ping: %w", err)
	}
	return nil
}
