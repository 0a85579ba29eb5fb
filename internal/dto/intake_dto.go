package dto

import (
	"time"
)

type CreateSessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	Message   string    `json:"message"`
}

type SendMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

type SendMessageResponse struct {
	SessionID     string            `json:"session_id"`
	Response      string            `json:"response"`
	CollectedInfo map[string]string `json:"collected_info"`
	IsComplete    bool              `json:"is_complete"`
	IsCached      bool              `json:"is_cached"`
	NextField     *string           `json:"next_field"`
}

type ConversationDTO struct {
	Id                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	UserMessage       string    `json:"user_message"`
	AssistantResponse string    `json:"assistant_response"`
	IsCached          bool      `json:"is_cached"`
	Timestamp         time.Time `json:"timestamp"`
}

type ConversationHistoryResponse struct {
	SessionID     string            `json:"session_id"`
	Conversations []ConversationDTO `json:"conversations"`
}

type CollectedInfoResponse struct {
	SessionID     string            `json:"session_id"`
	CollectedInfo map[string]string `json:"collected_info"`
	IsComplete    bool              `json:"is_complete"`
}

type CompletionStatusResponse struct {
	SessionID      string  `json:"session_id"`
	IsComplete     bool    `json:"is_complete"`
	CollectedCount int     `json:"collected_count"`
	TotalRequired  int     `json:"total_required"`
	NextField      *string `json:"next_field"`
	Progress       string  `json:"progress"`
}

type SessionStatusResponse struct {
	SessionID         string                   `json:"session_id"`
	State             string                   `json:"state"`
	CollectedInfo     map[string]string        `json:"collected_info"`
	Completion        CompletionStatusResponse `json:"completion"`
	ConversationCount int                      `json:"conversation_count"`
	CacheHits         int                      `json:"cache_hits"`
	CacheMisses       int                      `json:"cache_misses"`
}

// HistoryQuery pages GET messages; a zero Limit returns every exchange
type HistoryQuery struct {
	Limit  int `query:"limit" validate:"omitempty,min=1,max=200"`
	Offset int `query:"offset" validate:"omitempty,min=0"`
}

type SearchRequest struct {
	Query string `json:"query" validate:"required,max=4000"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=20"`
}

type SimilarConversationDTO struct {
	ConversationDTO
	Distance float64 `json:"distance"`
}

type SearchResponse struct {
	SessionID string                   `json:"session_id"`
	Query     string                   `json:"query"`
	Results   []SimilarConversationDTO `json:"results"`
}

type ServiceInfoResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}
