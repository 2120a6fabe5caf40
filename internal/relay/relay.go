package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/mkarpenko/livetrack/internal/logger"
	"github.com/mkarpenko/livetrack/internal/service/auth/tokenmanager"
)

const (
	defaultSendQueueSize = 64
	defaultWriteTimeout  = 5 * time.Second
)

type accessVerifier interface {
	ParseAccess(access string) (tokenmanager.Identity, error)
}

type Config struct {
	// Outbound frame queue per connection
	SendQueueSize int

	// Per frame write deadline
	WriteTimeout time.Duration

	// Disconnect connections idle longer than this.
	// Zero disables the policy: a connection that never identifies
	// stays open indefinitely
	IdleTimeout time.Duration
}

// Relay authenticates streaming connections against access credentials and
// forwards point to point location updates between them
type Relay struct {
	logger   logger.Logger
	tokens   accessVerifier
	registry *Registry

	sendQueueSize int
	writeTimeout  time.Duration
	idleTimeout   time.Duration

	clients *clientSet
}

func New(cfg Config, tokens accessVerifier, registry *Registry, logger logger.Logger) *Relay {
	if cfg.SendQueueSize <= 0 {
		cfg.SendQueueSize = defaultSendQueueSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	return &Relay{
		logger:        logger,
		tokens:        tokens,
		registry:      registry,
		sendQueueSize: cfg.SendQueueSize,
		writeTimeout:  cfg.WriteTimeout,
		idleTimeout:   cfg.IdleTimeout,
		clients:       newClientSet(),
	}
}

// ServeHTTP upgrades the request to a websocket and runs the message loop
// until the peer disconnects
func (rl *Relay) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		rl.logger.Info("relay accept failed", "error", err)
		return
	}

	connID := uuid.NewString()
	client := newClient(connID, rl.sendQueueSize)

	rl.clients.add(client)
	defer rl.clients.remove(connID)
	defer rl.registry.Remove(connID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Single writer goroutine: every outbound frame of this connection goes
	// through client.Send, and the writer owns closing the connection
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)

		for {
			select {
			case <-ctx.Done():
				_ = conn.Close(websocket.StatusGoingAway, "server shutdown")
				return

			case <-client.Done():
				// Flush what is already queued, then close
				for {
					select {
					case data := <-client.Send:
						if err := rl.write(ctx, conn, data); err != nil {
							_ = conn.Close(websocket.StatusAbnormalClosure, "write failed")
							return
						}
					default:
						_ = conn.Close(client.status, client.reason)
						return
					}
				}

			case data := <-client.Send:
				if err := rl.write(ctx, conn, data); err != nil {
					rl.logger.Info("relay write failed", "conn_id", connID, "error", err)
					_ = conn.Close(websocket.StatusAbnormalClosure, "write failed")
					cancel()
					return
				}
			}
		}
	}()

	// Messages of one connection are handled sequentially in arrival order
	bound := false
	var boundUserID int64

readLoop:
	for {
		readCtx, readCancel := ctx, context.CancelFunc(func() {})
		if rl.idleTimeout > 0 {
			readCtx, readCancel = context.WithTimeout(ctx, rl.idleTimeout)
		}

		_, data, err := conn.Read(readCtx)
		readCancel()
		if err != nil {
			client.Close(websocket.StatusNormalClosure, "bye")
			break readLoop
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			rl.reply(ctx, client, errorMessage{Type: TypeError, Message: "Invalid message format."})
			continue readLoop
		}

		switch msg.Type {
		case TypeIdentify:
			identity, err := rl.identify(ctx, client, msg)
			if err != nil {
				// Identify failure is fatal to the connection
				client.Close(websocket.StatusPolicyViolation, "identify failed")
				break readLoop
			}
			bound = true
			boundUserID = identity.UserID

		case TypeLocation:
			if !bound {
				rl.reply(ctx, client, errorMessage{Type: TypeError, Message: "Not identified."})
				continue readLoop
			}
			rl.location(ctx, client, boundUserID, msg)

		default:
			rl.reply(ctx, client, errorMessage{Type: TypeError, Message: "Unknown message type."})
		}
	}

	<-writerDone
}

// identify verifies the access token and binds the connection.
// Any returned error means the caller must drop the connection
func (rl *Relay) identify(ctx context.Context, client *Client, msg clientMessage) (tokenmanager.Identity, error) {
	if msg.AccessToken == "" || msg.TargetID == "" {
		rl.reply(ctx, client, errorMessage{Type: TypeError, Message: "Invalid identify payload."})
		return tokenmanager.Identity{}, errBadIdentify
	}

	identity, err := rl.tokens.ParseAccess(msg.AccessToken)
	if err != nil {
		rl.reply(ctx, client, errorMessage{Type: TypeError, Message: "Invalid or expired access token."})
		return tokenmanager.Identity{}, err
	}

	rl.registry.Bind(client.ConnID, identity.UserID, identity.Role, msg.TargetID)
	rl.logger.Debug("connection identified", "conn_id", client.ConnID, "user_id", identity.UserID)

	rl.reply(ctx, client, identifiedMessage{Type: TypeIdentified, UserID: identity.UserID})
	return identity, nil
}

// location updates the session and routes the update to every connection
// bound to the message's target user id
func (rl *Relay) location(ctx context.Context, client *Client, fromUserID int64, msg clientMessage) {
	if msg.Lat == nil || msg.Lng == nil || msg.TargetID == "" {
		rl.reply(ctx, client, errorMessage{Type: TypeError, Message: "Invalid location payload."})
		return
	}

	if _, err := rl.registry.UpdateLocation(client.ConnID, *msg.Lat, *msg.Lng); err != nil {
		rl.reply(ctx, client, errorMessage{Type: TypeError, Message: "Not identified."})
		return
	}

	// Non-numeric target ids match no bound user: the update is dropped
	targetUserID, err := strconv.ParseInt(msg.TargetID, 10, 64)
	if err != nil {
		return
	}

	update, err := json.Marshal(locationUpdateMessage{
		Type: TypeLocationUpdate,
		From: fromUserID,
		Lat:  *msg.Lat,
		Lng:  *msg.Lng,
	})
	if err != nil {
		return
	}

	// Lookup by user id broadcast: zero matches is a silent drop
	for _, session := range rl.registry.FindByUserID(targetUserID) {
		target, ok := rl.clients.get(session.ConnID)
		if !ok {
			continue
		}
		rl.deliver(target, update)
	}
}

// reply queues a frame for this connection's own peer, preserving order.
// Blocks until queued or the connection is going away
func (rl *Relay) reply(ctx context.Context, client *Client, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}

	select {
	case <-ctx.Done():
	case <-client.Done():
	case client.Send <- data:
	}
}

// deliver queues a frame for another connection without ever blocking:
// a slow or closing receiver drops the update rather than stalling the sender
func (rl *Relay) deliver(client *Client, data []byte) {
	select {
	case <-client.Done():
		return
	default:
	}

	select {
	case client.Send <- data:
	default:
	}
}

func (rl *Relay) write(ctx context.Context, conn *websocket.Conn, data []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, rl.writeTimeout)
	defer cancel()

	return conn.Write(writeCtx, websocket.MessageText, data)
}
