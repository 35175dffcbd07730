package websocket

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errFakeClosed = errors.New("fake connection closed")

type fakeFrame struct {
	Type int
	Data []byte
}

// fakeConn is an in-memory Connection. Reads block until a frame is pushed
// or the connection is closed.
type fakeConn struct {
	incoming chan []byte

	mu        sync.Mutex
	written   []fakeFrame
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
	readLimit int64
	pong      func(string) error
}

func newFakeConn() *fakeConn {
	return &fakeConn{incoming: make(chan []byte, 16), done: make(chan struct{})}
}

func (f *fakeConn) push(msg string) { f.incoming <- []byte(msg) }

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errFakeClosed
	}
	f.written = append(f.written, fakeFrame{Type: messageType, Data: append([]byte(nil), data...)})
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case msg := <-f.incoming:
		return websocket.TextMessage, msg, nil
	case <-f.done:
		return 0, nil, errFakeClosed
	}
}

func (f *fakeConn) Close() error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		close(f.done)
	})
	return nil
}

func (f *fakeConn) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeConn) SetReadLimit(limit int64)         { f.readLimit = limit }
func (f *fakeConn) SetPongHandler(h func(string) error) {
	f.pong = h
}
func (f *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 5555}
}

// textFrames returns the text payloads written so far
func (f *fakeConn) textFrames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, fr := range f.written {
		if fr.Type == websocket.TextMessage {
			out = append(out, fr.Data)
		}
	}
	return out
}
