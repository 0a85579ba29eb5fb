package handler

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/gofiber/websocket/v2"

	"ppm-intake-be/internal/dto"
	"ppm-intake-be/internal/pkg/logger"
	"ppm-intake-be/internal/pkg/serverutils"
	"ppm-intake-be/internal/service"
	internalWS "ppm-intake-be/internal/websocket"
)

const (
	FrameReply = "reply"
	FrameError = "error"
)

type chatFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ChatHandler runs chat turns over a websocket. Completion events for the
// session arrive on the same connection through the hub.
type ChatHandler struct {
	service service.IIntakeService
	hub     *internalWS.Hub
	logger  logger.ILogger
}

func NewChatHandler(svc service.IIntakeService, hub *internalWS.Hub, log logger.ILogger) *ChatHandler {
	return &ChatHandler{
		service: svc,
		hub:     hub,
		logger:  log,
	}
}

func (h *ChatHandler) ServeWs(c *fiber.Ctx) error {
	// the socket outlives the request whose buffer backs Params
	sessionID := utils.CopyString(c.Params("session_id"))
	if strings.TrimSpace(sessionID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(fiber.StatusBadRequest, "session id is required"))
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("ChatHandler", "Starting chat socket", map[string]interface{}{"session_id": sessionID})
			internalWS.ServeWs(h.hub, conn, sessionID, h.HandleFrame)
			h.logger.Info("ChatHandler", "Chat socket ended", map[string]interface{}{"session_id": sessionID})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// HandleFrame decodes {"message": "..."} and answers with a reply or error frame
func (h *ChatHandler) HandleFrame(ctx context.Context, sessionID string, frame []byte) []byte {
	var req dto.SendMessageRequest
	if err := json.Unmarshal(frame, &req); err != nil {
		return encodeFrame(FrameError, map[string]string{"message": "invalid frame"})
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return encodeFrame(FrameError, map[string]string{"message": err.Error()})
	}

	res, err := h.service.SendMessage(ctx, sessionID, &req)
	if err != nil {
		h.logger.Error("ChatHandler", "Chat turn failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return encodeFrame(FrameError, map[string]string{"message": "message could not be processed"})
	}
	return encodeFrame(FrameReply, res)
}

func encodeFrame(frameType string, data interface{}) []byte {
	b, err := json.Marshal(chatFrame{Type: frameType, Data: data})
	if err != nil {
		return []byte(`{"type":"error","data":{"message":"encoding failed"}}`)
	}
	return b
}

func (h *ChatHandler) RegisterRoutes(r fiber.Router) {
	r.Get("/chat/sessions/:session_id/ws", h.ServeWs)
}
