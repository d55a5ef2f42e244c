package websocketPkg

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const MessageTypeInject = "INJECT_SAFELENS_IMAGE"

var ErrNotConnected = errors.New("not connected to the editor bridge")

// InjectMessage asks the extension to place an image into the page's
// upload dialog.
type InjectMessage struct {
	Type         string `json:"type"`
	RequestID    string `json:"requestId"`
	ImageDataURL string `json:"imageDataUrl"`
}

type InjectReply struct {
	RequestID string `json:"requestId"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

type InjectHandler func(ctx context.Context, msg InjectMessage) InjectReply

type IWebsocket interface {
	Run(ctx context.Context) error
	IsConnected() bool
	Reconnect() error
	CloseConnection()
}

// bridgeClient is the extension side of the editor bridge. It dials the
// editor, answers inject requests with its handler and keeps the
// connection alive with pings.
type bridgeClient struct {
	endpoint     string
	handler      InjectHandler
	log          *logrus.Logger
	conn         *websocket.Conn
	mu           sync.Mutex
	writeMu      sync.Mutex
	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration
}

type Option func(*bridgeClient)

func WithPingInterval(d time.Duration) Option {
	return func(c *bridgeClient) {
		c.pingInterval = d
		c.readTimeout = 2 * d
	}
}

// NewBridgeClient builds a client for base, e.g. ws://host/api/v1/extension/ws,
// identifying itself as clientID.
func NewBridgeClient(base, clientID string, handler InjectHandler, log *logrus.Logger, opts ...Option) (IWebsocket, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid bridge url: %w", err)
	}
	q := u.Query()
	q.Set("client_id", clientID)
	u.RawQuery = q.Encode()

	c := &bridgeClient{
		endpoint:     u.String(),
		handler:      handler,
		log:          log,
		pingInterval: 30 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *bridgeClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *bridgeClient) Reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	c.log.Infof("Connecting to editor bridge at %s", c.endpoint)

	dialer := *websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.readTimeout))
	})
	conn.SetPingHandler(func(appData string) error {
		c.writeMu.Lock()
		defer c.writeMu.Unlock()
		if err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout)); err != nil {
			c.log.Warnf("Error sending pong: %v", err)
		}
		return nil
	})

	c.conn = conn
	go c.keepAlive(conn)

	return nil
}

func (c *bridgeClient) CloseConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.writeTimeout))
		c.writeMu.Unlock()
		c.conn.Close()
		c.conn = nil
	}
}

// Run reads inject requests until ctx is done or the connection drops.
func (c *bridgeClient) Run(ctx context.Context) error {
	conn, err := c.getConnection()
	if err != nil {
		if err := c.Reconnect(); err != nil {
			return err
		}
		if conn, err = c.getConnection(); err != nil {
			return err
		}
	}

	go func() {
		<-ctx.Done()
		c.CloseConnection()
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.drop(conn)
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("error reading bridge message: %w", err)
		}

		var msg InjectMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.log.Warnf("Ignoring malformed bridge message: %v", err)
			continue
		}
		if msg.Type != MessageTypeInject {
			c.log.Debugf("Ignoring bridge message of type %q", msg.Type)
			continue
		}

		reply := c.handler(ctx, msg)
		reply.RequestID = msg.RequestID

		if err := c.write(conn, reply); err != nil {
			c.drop(conn)
			return fmt.Errorf("error sending inject reply: %w", err)
		}
	}
}

func (c *bridgeClient) write(conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	defer conn.SetWriteDeadline(time.Time{})
	return conn.WriteMessage(websocket.TextMessage, payload)
}

func (c *bridgeClient) keepAlive(conn *websocket.Conn) {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		current := c.conn
		c.mu.Unlock()
		if current != conn {
			return
		}

		c.writeMu.Lock()
		err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(c.writeTimeout))
		c.writeMu.Unlock()

		if err != nil {
			c.log.Warnf("Ping failed, marking bridge connection as dead: %v", err)
			c.drop(conn)
			return
		}
	}
}

func (c *bridgeClient) drop(conn *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn = nil
	}
	conn.Close()
}

func (c *bridgeClient) getConnection() (*websocket.Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, ErrNotConnected
	}
	return c.conn, nil
}
