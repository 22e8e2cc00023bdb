package handlers

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/folio-site/folio-backend/config"
	"github.com/folio-site/folio-backend/internal/events"
	"github.com/folio-site/folio-backend/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const streamWriteTimeout = 10 * time.Second

// StreamMessage is one frame pushed to live feed clients.
type StreamMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StreamHandler pushes feedback events to websocket clients.
type StreamHandler struct {
	broker        events.Broker
	pingInterval  time.Duration
	writeTimeout  time.Duration
	originHosts   []string
	allowAll      bool
	isDevelopment bool
	log           *zap.SugaredLogger
}

func NewStreamHandler(broker events.Broker, serverCfg *config.ServerConfig, streamCfg config.StreamConfig) *StreamHandler {
	pingInterval := time.Duration(streamCfg.PingIntervalSeconds) * time.Second
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}

	h := &StreamHandler{
		broker:        broker,
		pingInterval:  pingInterval,
		writeTimeout:  streamWriteTimeout,
		isDevelopment: serverCfg.Environment == config.EnvDevelopment,
		log:           logger.GetLogger().Named("stream_handler"),
	}
	for _, origin := range serverCfg.AllowedOrigins {
		if origin == "*" {
			h.allowAll = true
			continue
		}
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			h.originHosts = append(h.originHosts, u.Host)
		}
	}
	if len(serverCfg.AllowedOrigins) == 0 {
		h.allowAll = true
	}
	return h
}

// acceptOptions checks the Origin header against the CORS allow list.
// Development and "*" skip the check.
func (h *StreamHandler) acceptOptions() *websocket.AcceptOptions {
	opts := &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionContextTakeover,
	}
	if h.isDevelopment || h.allowAll {
		opts.InsecureSkipVerify = true
	} else {
		opts.OriginPatterns = h.originHosts
	}
	return opts
}

// Stream godoc
// @Summary      Live feedback feed
// @Description  Upgrades to a websocket and pushes feedback.created and feedback.deleted events.
// @Tags         feedback
// @Success      101
// @Router       /feedback/stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, h.acceptOptions())
	if err != nil {
		h.log.Warnw("Failed to accept websocket connection", "error", err)
		return
	}
	defer conn.CloseNow()

	// Clients only listen; CloseRead handles control frames and ends ctx on close.
	ctx := conn.CloseRead(c.Request.Context())

	feed, cancel, err := h.broker.Subscribe(ctx)
	if err != nil {
		h.log.Errorw("Failed to subscribe to feedback events", "error", err)
		_ = conn.Close(websocket.StatusInternalError, "subscription failed")
		return
	}
	defer cancel()

	if err := h.write(ctx, conn, StreamMessage{Type: "connected"}); err != nil {
		return
	}
	h.log.Debugw("Stream client connected", "client_ip", c.ClientIP())

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-feed:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := h.write(ctx, conn, StreamMessage{Type: string(event.Type), Payload: event.Payload}); err != nil {
				h.log.Debugw("Stream write failed", "error", err)
				return
			}
		case <-ticker.C:
			pingCtx, cancelPing := context.WithTimeout(ctx, h.writeTimeout)
			err := conn.Ping(pingCtx)
			cancelPing()
			if err != nil {
				h.log.Debugw("Stream ping failed", "error", err)
				return
			}
		}
	}
}

func (h *StreamHandler) write(ctx context.Context, conn *websocket.Conn, msg StreamMessage) error {
	writeCtx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, msg)
}
