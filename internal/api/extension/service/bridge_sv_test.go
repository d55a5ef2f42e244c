package extensionService

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safelens/internal/api/extension"
	websocketPkg "safelens/pkg/websocket"
)

type fakeConn struct {
	mu       sync.Mutex
	sent     []websocketPkg.InjectMessage
	closed   bool
	writeErr error
	onWrite  func(msg websocketPkg.InjectMessage)
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	msg := v.(websocketPkg.InjectMessage)
	c.mu.Lock()
	c.sent = append(c.sent, msg)
	c.mu.Unlock()
	if c.onWrite != nil {
		go c.onWrite(msg)
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func newService(timeout time.Duration) *extensionService {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewExtensionService(logger, timeout).(*extensionService)
}

func register(t *testing.T, svc *extensionService, clientID string, conn Conn) func() {
	t.Helper()
	unregister, err := svc.Register(clientID, conn)
	require.NoError(t, err)
	return unregister
}

func TestRegister_RequiresClientID(t *testing.T) {
	svc := newService(time.Second)

	for _, id := range []string{"", "   "} {
		unregister, err := svc.Register(id, &fakeConn{})
		assert.ErrorIs(t, err, extension.ErrClientIDRequired)
		assert.Nil(t, unregister)
	}
	assert.Empty(t, svc.Clients())
}

func TestInject_Success(t *testing.T) {
	svc := newService(time.Second)
	conn := &fakeConn{}
	conn.onWrite = func(msg websocketPkg.InjectMessage) {
		svc.Deliver("tab-1", websocketPkg.InjectReply{RequestID: msg.RequestID, Success: true, Message: "Image injected successfully"})
	}
	defer register(t, svc, "tab-1", conn)()

	res, err := svc.Inject(context.Background(), "tab-1", []byte{0xff, 0xd8, 0xff}, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Image injected successfully", res.Message)

	require.Len(t, conn.sent, 1)
	msg := conn.sent[0]
	assert.Equal(t, websocketPkg.MessageTypeInject, msg.Type)
	assert.Equal(t, res.RequestID, msg.RequestID)
	assert.True(t, strings.HasPrefix(msg.ImageDataURL, "data:image/jpeg;base64,"))
	assert.Empty(t, svc.pending)
}

func TestInject_Failures(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		svc := newService(time.Second)
		_, err := svc.Inject(context.Background(), "nobody", []byte("x"), "")
		assert.ErrorIs(t, err, extension.ErrClientNotConnected)
	})

	t.Run("empty client id", func(t *testing.T) {
		svc := newService(time.Second)
		_, err := svc.Inject(context.Background(), "", []byte("x"), "")
		assert.ErrorIs(t, err, extension.ErrClientIDRequired)
	})

	t.Run("rejected", func(t *testing.T) {
		svc := newService(time.Second)
		conn := &fakeConn{}
		conn.onWrite = func(msg websocketPkg.InjectMessage) {
			svc.Deliver("tab-1", websocketPkg.InjectReply{RequestID: msg.RequestID, Error: "no file input on the page"})
		}
		defer register(t, svc, "tab-1", conn)()

		_, err := svc.Inject(context.Background(), "tab-1", []byte("x"), "image/png")
		assert.ErrorIs(t, err, extension.ErrInjectRejected)
	})

	t.Run("timeout", func(t *testing.T) {
		svc := newService(20 * time.Millisecond)
		defer register(t, svc, "tab-1", &fakeConn{})()

		_, err := svc.Inject(context.Background(), "tab-1", []byte("x"), "image/png")
		assert.ErrorIs(t, err, extension.ErrInjectTimeout)
		assert.Empty(t, svc.pending)
	})

	t.Run("write failure", func(t *testing.T) {
		svc := newService(time.Second)
		defer register(t, svc, "tab-1", &fakeConn{writeErr: errors.New("broken pipe")})()

		_, err := svc.Inject(context.Background(), "tab-1", []byte("x"), "image/png")
		assert.ErrorIs(t, err, extension.ErrInjectFailedToWrite)
	})

	t.Run("disconnect while waiting", func(t *testing.T) {
		svc := newService(time.Second)
		conn := &fakeConn{}
		var unregister func()
		conn.onWrite = func(websocketPkg.InjectMessage) { unregister() }
		unregister = register(t, svc, "tab-1", conn)

		_, err := svc.Inject(context.Background(), "tab-1", []byte("x"), "image/png")
		assert.ErrorIs(t, err, extension.ErrClientDisconnected)
		assert.Empty(t, svc.Clients())
	})

	t.Run("caller gives up", func(t *testing.T) {
		svc := newService(time.Second)
		defer register(t, svc, "tab-1", &fakeConn{})()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.Inject(ctx, "tab-1", []byte("x"), "image/png")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRegister_ReplacesPreviousConnection(t *testing.T) {
	svc := newService(time.Second)

	first := &fakeConn{}
	unregisterFirst := register(t, svc, "tab-1", first)
	second := &fakeConn{}
	unregisterSecond := register(t, svc, "tab-1", second)

	assert.True(t, first.isClosed())
	assert.False(t, second.isClosed())

	// the old read loop ending must not drop the new connection
	unregisterFirst()
	assert.Equal(t, []string{"tab-1"}, svc.Clients())

	unregisterSecond()
	assert.Empty(t, svc.Clients())
}

func TestDeliver_IgnoresUnknownReplies(t *testing.T) {
	svc := newService(50 * time.Millisecond)
	conn := &fakeConn{}
	conn.onWrite = func(msg websocketPkg.InjectMessage) {
		svc.Deliver("tab-2", websocketPkg.InjectReply{RequestID: msg.RequestID, Success: true})
		svc.Deliver("tab-1", websocketPkg.InjectReply{RequestID: "someone-else", Success: true})
	}
	defer register(t, svc, "tab-1", conn)()
	defer register(t, svc, "tab-2", &fakeConn{})()

	_, err := svc.Inject(context.Background(), "tab-1", []byte("x"), "image/png")
	assert.ErrorIs(t, err, extension.ErrInjectTimeout)
}

func TestClientsSorted(t *testing.T) {
	svc := newService(time.Second)
	defer register(t, svc, "b", &fakeConn{})()
	defer register(t, svc, "a", &fakeConn{})()
	assert.Equal(t, []string{"a", "b"}, svc.Clients())
}
