package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bachngocs/support-chatbot-be/types"
)

type WebSocketService struct {
	ai        AIService
	knowledge KnowledgeService
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

func NewWebSocketService(ai AIService, knowledge KnowledgeService, logger *zap.Logger) *WebSocketService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketService{
		ai:        ai,
		knowledge: knowledge,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

func (s *WebSocketService) HandleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Set connection properties
	conn.SetReadLimit(512 * 1024) // 512KB max message size
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			s.writeError(conn, "invalid message", false)
			continue
		}

		switch req.Type {
		case types.TypeWebsocketPing:
			conn.WriteJSON(types.WebSocketResponse{Type: types.TypeWebsocketPong})

		case types.TypeWebsocketChat:
			payloadBytes, err := json.Marshal(req.Payload)
			if err != nil {
				s.writeError(conn, "invalid message", false)
				continue
			}
			var payload types.WebSocketChatPayload
			if err := json.Unmarshal(payloadBytes, &payload); err != nil {
				s.writeError(conn, "invalid chat payload", false)
				continue
			}
			s.handleChatMessage(ctx, conn, payload)

		default:
			s.writeError(conn, "unknown message type", false)
		}
	}
}

func (s *WebSocketService) handleChatMessage(ctx context.Context, conn *websocket.Conn, payload types.WebSocketChatPayload) {
	contextText, err := s.knowledge.RelevantContext(ctx, payload.Message)
	if err != nil {
		// A broken knowledge base should not block the conversation.
		s.logger.Warn("failed to build knowledge context", zap.Error(err))
		contextText = ""
	}

	result, err := s.ai.Complete(ctx, payload.Message, contextText)
	if err != nil {
		if errors.Is(err, types.ErrServiceExhausted) {
			s.writeError(conn, "assistant temporarily unavailable, please retry later", true)
			return
		}
		s.logger.Error("completion failed", zap.Error(err))
		s.writeError(conn, "failed to generate a reply", false)
		return
	}

	conn.WriteJSON(types.WebSocketResponse{
		Type: types.TypeWebsocketChat,
		Payload: types.WebSocketChatResponse{
			Message: result.Text,
			Model:   result.Model,
			Tier:    result.Tier,
		},
	})
}

func (s *WebSocketService) writeError(conn *websocket.Conn, message string, retryable bool) {
	conn.WriteJSON(types.WebSocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: types.WebSocketErrorResponse{Message: message, Retryable: retryable},
	})
}

func (s *WebSocketService) Health() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}
