package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// client is one renderer connection. Only writePump writes to conn.
type client struct {
	id     string
	conn   *websocket.Conn
	logger *zap.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
	done   chan struct{}
}

func newClient(id string, conn *websocket.Conn, logger *zap.Logger) *client {
	return &client{
		id:     id,
		conn:   conn,
		logger: logger,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}
}

// enqueue queues data for writing. A client whose buffer is full is
// disconnected; it resynchronises from the state message on reconnect.
func (cl *client) enqueue(data []byte) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	if cl.closed {
		return false
	}
	select {
	case cl.send <- data:
		return true
	default:
		cl.logger.Warn("Renderer too slow, disconnecting", zap.String("connection_id", cl.id))
		cl.closeLocked()
		return false
	}
}

func (cl *client) close() {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.closeLocked()
}

func (cl *client) closeLocked() {
	if cl.closed {
		return
	}
	cl.closed = true
	close(cl.done)
}

func (cl *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = cl.conn.Close()
	}()

	for {
		select {
		case data := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				cl.close()
				return
			}
		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cl.close()
				return
			}
		case <-cl.done:
			// Flush what is already queued, then say goodbye
			for {
				select {
				case data := <-cl.send:
					_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
						return
					}
				default:
					_ = cl.conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeWait))
					return
				}
			}
		}
	}
}
