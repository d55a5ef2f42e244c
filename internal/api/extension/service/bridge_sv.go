package extensionService

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"safelens/internal/api/extension"
	contextPkg "safelens/pkg/context"
	"safelens/pkg/utils"
	websocketPkg "safelens/pkg/websocket"
)

func (s *extensionService) Register(clientID string, conn Conn) (func(), error) {
	// an unnamed client could never be targeted by Inject
	if strings.TrimSpace(clientID) == "" {
		return nil, extension.ErrClientIDRequired
	}
	cl := &client{id: clientID, conn: conn}

	s.mu.Lock()
	prev := s.clients[clientID]
	s.clients[clientID] = cl
	s.mu.Unlock()

	if prev != nil {
		s.log.WithField("client_id", clientID).Info("Extension reconnected, closing previous connection")
		_ = prev.conn.Close()
	}
	s.log.WithField("client_id", clientID).Info("Extension connected")

	return func() { s.unregister(cl) }, nil
}

func (s *extensionService) unregister(cl *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, p := range s.pending {
		if p.client == cl {
			close(p.reply)
			delete(s.pending, id)
		}
	}

	if s.clients[cl.id] == cl {
		delete(s.clients, cl.id)
		s.log.WithField("client_id", cl.id).Info("Extension disconnected")
	}
}

func (s *extensionService) Deliver(clientID string, reply websocketPkg.InjectReply) {
	s.mu.Lock()
	p, ok := s.pending[reply.RequestID]
	ok = ok && p.client.id == clientID
	if ok {
		delete(s.pending, reply.RequestID)
	}
	s.mu.Unlock()

	if !ok {
		s.log.WithFields(logrus.Fields{
			"client_id":  clientID,
			"request_id": reply.RequestID,
		}).Warn("Dropping reply for unknown inject request")
		return
	}
	p.reply <- reply
}

// Inject sends the image to the extension as a data URL and waits for its
// answer.
func (s *extensionService) Inject(ctx context.Context, clientID string, image []byte, contentType string) (*extension.InjectResponse, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, extension.ErrClientIDRequired
	}

	s.mu.Lock()
	cl, ok := s.clients[clientID]
	if !ok {
		s.mu.Unlock()
		return nil, extension.ErrClientNotConnected
	}
	requestID := s.newID()
	p := &pendingInject{client: cl, reply: make(chan websocketPkg.InjectReply, 1)}
	s.pending[requestID] = p
	s.mu.Unlock()

	fields := logrus.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"session_id": contextPkg.GetSessionID(ctx),
		"client_id":  clientID,
		"inject_id":  requestID,
	}

	msg := websocketPkg.InjectMessage{
		Type:         websocketPkg.MessageTypeInject,
		RequestID:    requestID,
		ImageDataURL: utils.DataURL(image, contentType),
	}

	cl.writeMu.Lock()
	err := cl.conn.WriteJSON(msg)
	cl.writeMu.Unlock()
	if err != nil {
		s.forget(requestID)
		s.log.WithFields(fields).WithError(err).Error("Failed to send inject request")
		return nil, extension.ErrInjectFailedToWrite
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case reply, ok := <-p.reply:
		if !ok {
			return nil, extension.ErrClientDisconnected
		}
		if !reply.Success {
			s.log.WithFields(fields).WithField("reason", reply.Error).Warn("Extension rejected inject")
			return nil, extension.ErrInjectRejected
		}
		s.log.WithFields(fields).Info("Image injected")
		return &extension.InjectResponse{
			ClientID:  clientID,
			RequestID: requestID,
			Success:   true,
			Message:   reply.Message,
		}, nil
	case <-timer.C:
		s.forget(requestID)
		s.log.WithFields(fields).Warn("Extension did not answer inject in time")
		return nil, extension.ErrInjectTimeout
	case <-ctx.Done():
		s.forget(requestID)
		return nil, ctx.Err()
	}
}

func (s *extensionService) Clients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.clients))
	for id := range s.clients {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *extensionService) forget(requestID string) {
	s.mu.Lock()
	delete(s.pending, requestID)
	s.mu.Unlock()
}
