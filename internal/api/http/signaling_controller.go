package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/skillswap/internal/domain"
	"github.com/immxrtalbeast/skillswap/internal/service"
	"github.com/immxrtalbeast/skillswap/lib/logger/sl"
)

const maxSignalSize = 64 << 10

var errMalformedSignal = errors.New("malformed signaling message")

type SignalingOptions struct {
	WriteTimeout time.Duration
	PongTimeout  time.Duration
}

// SignalingController serves the relay over websocket. Each socket gets one
// writer goroutine draining the connection's queue, so frames to a peer keep
// the order they were relayed in.
type SignalingController struct {
	relay    service.RelayInteractor
	tokens   TokenValidator
	opts     SignalingOptions
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewSignalingController(relay service.RelayInteractor, tokens TokenValidator, opts SignalingOptions, log *slog.Logger) *SignalingController {
	if log == nil {
		log = slog.Default()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	if opts.PongTimeout <= 0 {
		opts.PongTimeout = 60 * time.Second
	}
	return &SignalingController{
		relay:  relay,
		tokens: tokens,
		opts:   opts,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Connect authenticates before upgrading; an unauthenticated caller never
// gets a socket.
func (c *SignalingController) Connect(ctx *gin.Context) {
	const op = "http.signaling.connect"

	id, ok := authenticate(ctx, c.tokens)
	if !ok {
		return
	}

	ws, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("websocket upgrade failed", slog.String("op", op), sl.Err(err))
		return
	}
	defer ws.Close()

	conn := c.relay.Connect(id.UserID)
	log := c.log.With(
		slog.String("op", op),
		slog.String("conn_id", conn.ID),
		slog.String("user_id", id.UserID.String()),
	)
	log.Info("signaling connection opened")

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop(ws, conn, log)
	}()

	c.readLoop(ctx, ws, conn, log)
	c.relay.Disconnect(conn)
	<-writerDone
	log.Info("signaling connection closed")
}

func (c *SignalingController) readLoop(ctx *gin.Context, ws *websocket.Conn, conn *domain.Connection, log *slog.Logger) {
	ws.SetReadLimit(maxSignalSize)
	_ = ws.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(c.opts.PongTimeout))
	})

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read failed", sl.Err(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var msg domain.SignalMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			conn.Send(domain.ErrorSignal("", errMalformedSignal))
			continue
		}
		if err := c.relay.Handle(ctx.Request.Context(), conn, msg); err != nil {
			level := slog.LevelWarn
			if service.IsRelayRefusal(err) {
				level = slog.LevelDebug
			}
			log.Log(ctx.Request.Context(), level, "signal refused", slog.String("type", msg.Type), sl.Err(err))
		}
	}
}

// writeLoop is the only writer on ws. A failed write closes the socket, which
// ends the read loop and with it the connection.
func (c *SignalingController) writeLoop(ws *websocket.Conn, conn *domain.Connection, log *slog.Logger) {
	ticker := time.NewTicker(c.opts.PongTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-conn.Done():
			deadline := time.Now().Add(c.opts.WriteTimeout)
			_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		case msg := <-conn.Events():
			_ = ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
			if err := ws.WriteJSON(msg); err != nil {
				log.Debug("write failed", sl.Err(err))
				_ = ws.Close()
				return
			}
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteTimeout)); err != nil {
				log.Debug("ping failed", sl.Err(err))
				_ = ws.Close()
				return
			}
		}
	}
}
