package extensionService

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"safelens/internal/api/extension"
	websocketPkg "safelens/pkg/websocket"
)

// Conn is the server side of one extension connection.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type IExtensionService interface {
	// Register makes conn the connection for clientID, closing any previous
	// one. The returned func unregisters it.
	Register(clientID string, conn Conn) (func(), error)
	Deliver(clientID string, reply websocketPkg.InjectReply)
	Inject(ctx context.Context, clientID string, image []byte, contentType string) (*extension.InjectResponse, error)
	Clients() []string
}

type client struct {
	id      string
	conn    Conn
	writeMu sync.Mutex
}

// pendingInject waits for the answer on the connection it was sent over.
type pendingInject struct {
	client *client
	reply  chan websocketPkg.InjectReply
}

type extensionService struct {
	log     *logrus.Logger
	timeout time.Duration
	newID   func() string

	mu      sync.Mutex
	clients map[string]*client
	pending map[string]*pendingInject
}

// NewExtensionService keeps the connected extensions. timeout bounds how long
// an inject waits for the extension to answer.
func NewExtensionService(log *logrus.Logger, timeout time.Duration) IExtensionService {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &extensionService{
		log:     log,
		timeout: timeout,
		newID:   uuid.NewString,
		clients: make(map[string]*client),
		pending: make(map[string]*pendingInject),
	}
}
