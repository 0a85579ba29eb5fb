package service

import (
	"context"

	"ppm-intake-be/internal/dto"
	"ppm-intake-be/pkg/intake/cache"
	"ppm-intake-be/pkg/intake/field"
	"ppm-intake-be/pkg/intake/session"
)

// SessionCounter reports how many sessions are resident
type SessionCounter interface {
	Count() int
}

type IIntakeService interface {
	CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error)
	SendMessage(ctx context.Context, sessionID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	GetHistory(ctx context.Context, sessionID string, q *dto.HistoryQuery) (*dto.ConversationHistoryResponse, error)
	GetCollectedInfo(ctx context.Context, sessionID string) (*dto.CollectedInfoResponse, error)
	GetCompletionStatus(ctx context.Context, sessionID string) (*dto.CompletionStatusResponse, error)
	GetStatus(ctx context.Context, sessionID string) (*dto.SessionStatusResponse, error)
	Search(ctx context.Context, sessionID string, req *dto.SearchRequest) (*dto.SearchResponse, error)
	CloseSession(ctx context.Context, sessionID string) error
	ClearConversations(ctx context.Context, sessionID string) error
	ClearAllConversations(ctx context.Context) error
	ActiveSessions() int
}

type intakeService struct {
	manager  *session.Manager
	sessions SessionCounter
}

func NewIntakeService(manager *session.Manager, sessions SessionCounter) IIntakeService {
	return &intakeService{
		manager:  manager,
		sessions: sessions,
	}
}

func (s *intakeService) CreateSession(ctx context.Context) (*dto.CreateSessionResponse, error) {
	created, err := s.manager.CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	return &dto.CreateSessionResponse{
		SessionID: created.SessionID,
		CreatedAt: created.CreatedAt,
		Message:   created.Greeting,
	}, nil
}

func (s *intakeService) SendMessage(ctx context.Context, sessionID string, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	res, err := s.manager.SendMessage(ctx, sessionID, req.Message)
	if err != nil {
		return nil, err
	}
	return &dto.SendMessageResponse{
		SessionID:     res.SessionID,
		Response:      res.Reply,
		CollectedInfo: s.collectedInfo(res.Fields),
		IsComplete:    res.IsComplete,
		IsCached:      res.IsCached,
		NextField:     nextField(res.NextField),
	}, nil
}

func (s *intakeService) GetHistory(ctx context.Context, sessionID string, q *dto.HistoryQuery) (*dto.ConversationHistoryResponse, error) {
	var page cache.Page
	if q != nil {
		page = cache.Page{Offset: q.Offset, Limit: q.Limit}
	}
	history, err := s.manager.History(ctx, sessionID, page)
	if err != nil {
		return nil, err
	}
	res := &dto.ConversationHistoryResponse{
		SessionID:     sessionID,
		Conversations: make([]dto.ConversationDTO, 0, len(history)),
	}
	for _, ex := range history {
		res.Conversations = append(res.Conversations, conversationDTO(ex))
	}
	return res, nil
}

func (s *intakeService) GetCollectedInfo(ctx context.Context, sessionID string) (*dto.CollectedInfoResponse, error) {
	view, err := s.manager.Fields(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.CollectedInfoResponse{
		SessionID:     view.SessionID,
		CollectedInfo: s.collectedInfo(view.Values),
		IsComplete:    view.IsComplete,
	}, nil
}

func (s *intakeService) GetCompletionStatus(ctx context.Context, sessionID string) (*dto.CompletionStatusResponse, error) {
	c, err := s.manager.CompletionStatus(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	res := completionDTO(c)
	return &res, nil
}

func (s *intakeService) GetStatus(ctx context.Context, sessionID string) (*dto.SessionStatusResponse, error) {
	o, err := s.manager.Status(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.SessionStatusResponse{
		SessionID:         o.SessionID,
		State:             string(o.State),
		CollectedInfo:     s.collectedInfo(o.Values),
		Completion:        completionDTO(o.Completion),
		ConversationCount: o.ConversationCount,
		CacheHits:         o.CacheStats.Hits,
		CacheMisses:       o.CacheStats.Misses,
	}, nil
}

func (s *intakeService) Search(ctx context.Context, sessionID string, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	matches, err := s.manager.SearchSimilar(ctx, sessionID, req.Query, req.Limit)
	if err != nil {
		return nil, err
	}
	res := &dto.SearchResponse{
		SessionID: sessionID,
		Query:     req.Query,
		Results:   make([]dto.SimilarConversationDTO, 0, len(matches)),
	}
	for _, m := range matches {
		res.Results = append(res.Results, dto.SimilarConversationDTO{
			ConversationDTO: conversationDTO(m.Exchange),
			Distance:        m.Distance,
		})
	}
	return res, nil
}

func (s *intakeService) CloseSession(ctx context.Context, sessionID string) error {
	return s.manager.CloseSession(ctx, sessionID)
}

func (s *intakeService) ClearConversations(ctx context.Context, sessionID string) error {
	return s.manager.ClearConversations(ctx, sessionID)
}

func (s *intakeService) ClearAllConversations(ctx context.Context) error {
	return s.manager.ClearAllConversations(ctx)
}

func (s *intakeService) ActiveSessions() int {
	if s.sessions == nil {
		return 0
	}
	return s.sessions.Count()
}

func (s *intakeService) collectedInfo(v field.Values) map[string]string {
	out := make(map[string]string, s.manager.Schema().Total())
	for id, value := range v.Map(s.manager.Schema()) {
		out[string(id)] = value
	}
	return out
}

func conversationDTO(ex cache.Exchange) dto.ConversationDTO {
	return dto.ConversationDTO{
		Id:                ex.ID,
		SessionID:         ex.SessionID,
		UserMessage:       ex.UserText,
		AssistantResponse: ex.AssistantText,
		IsCached:          ex.Cached,
		Timestamp:         ex.Timestamp,
	}
}

func completionDTO(c session.Completion) dto.CompletionStatusResponse {
	return dto.CompletionStatusResponse{
		SessionID:      c.SessionID,
		IsComplete:     c.IsComplete,
		CollectedCount: c.CollectedCount,
		TotalRequired:  c.TotalRequired,
		NextField:      nextField(c.NextField),
		Progress:       c.String(),
	}
}

// nextField is null in JSON once every field is collected
func nextField(id field.ID) *string {
	if id == "" {
		return nil
	}
	s := string(id)
	return &s
}
