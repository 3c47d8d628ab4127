package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"library-ai-be/internal/dto"
	"library-ai-be/internal/entity"
	"library-ai-be/internal/repository/specification"
	"library-ai-be/internal/repository/unitofwork"
	"library-ai-be/pkg/assistant/history"

	"github.com/google/uuid"
)

// ErrSessionNotFound covers both a missing session and one owned by another
// user, so callers cannot probe for foreign ids.
var ErrSessionNotFound = errors.New("session not found or access denied")

type IChatSessionService interface {
	CreateSession(ctx context.Context, userId uuid.UUID, title string) (*dto.SessionResponse, error)
	GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error)
	GetSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error)
	UpdateTitle(ctx context.Context, userId, sessionId uuid.UUID, title string) (*dto.SessionResponse, error)
	DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error
	ClearSessions(ctx context.Context, userId uuid.UUID) error
	GetMessages(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error)

	EnsureSession(ctx context.Context, userId uuid.UUID, sessionId string) (uuid.UUID, error)
	AppendMessage(ctx context.Context, sessionId, userId uuid.UUID, role, content string) error
	RecentMessages(ctx context.Context, sessionId uuid.UUID, limit int) ([]history.Entry, error)
}

type chatSessionService struct {
	uowFactory unitofwork.RepositoryFactory
	now        func() time.Time
}

func NewChatSessionService(uowFactory unitofwork.RepositoryFactory) IChatSessionService {
	return &chatSessionService{uowFactory: uowFactory, now: time.Now}
}

func (s *chatSessionService) CreateSession(ctx context.Context, userId uuid.UUID, title string) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	title = strings.TrimSpace(title)
	if title == "" {
		title = entity.DefaultSessionTitle
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     title,
		CreatedAt: s.now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return toSessionResponse(session, 0), nil
}

func (s *chatSessionService) GetAllSessions(ctx context.Context, userId uuid.UUID) ([]*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		count, err := countMessages(ctx, uow, session.Id)
		if err != nil {
			return nil, err
		}
		res = append(res, toSessionResponse(session, count))
	}
	return res, nil
}

func (s *chatSessionService) GetSession(ctx context.Context, userId, sessionId uuid.UUID) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}
	count, err := countMessages(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, count), nil
}

func (s *chatSessionService) UpdateTitle(ctx context.Context, userId, sessionId uuid.UUID, title string) (*dto.SessionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := findOwnedSession(ctx, uow, userId, sessionId)
	if err != nil {
		return nil, err
	}

	now := s.now()
	session.Title = strings.TrimSpace(title)
	session.UpdatedAt = &now
	if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
		return nil, err
	}
	count, err := countMessages(ctx, uow, session.Id)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(session, count), nil
}

func (s *chatSessionService) DeleteSession(ctx context.Context, userId, sessionId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := findOwnedSession(ctx, uow, userId, sessionId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, sessionId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, sessionId); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *chatSessionService) ClearSessions(ctx context.Context, userId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteAllByUserId(ctx, userId); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().DeleteAllByUserId(ctx, userId); err != nil {
		return err
	}
	return uow.Commit()
}

func (s *chatSessionService) GetMessages(ctx context.Context, userId, sessionId uuid.UUID) ([]*dto.ChatMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := findOwnedSession(ctx, uow, userId, sessionId); err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ChatMessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, &dto.ChatMessageResponse{
			Id:        m.Id,
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return res, nil
}

// EnsureSession opens a new session when sessionId is blank, otherwise it
// returns the caller's existing session.
func (s *chatSessionService) EnsureSession(ctx context.Context, userId uuid.UUID, sessionId string) (uuid.UUID, error) {
	if sessionId == "" {
		created, err := s.CreateSession(ctx, userId, "")
		if err != nil {
			return uuid.Nil, err
		}
		return created.Id, nil
	}

	id, err := uuid.Parse(sessionId)
	if err != nil {
		return uuid.Nil, ErrSessionNotFound
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	session, err := findOwnedSession(ctx, uow, userId, id)
	if err != nil {
		return uuid.Nil, err
	}
	return session.Id, nil
}

func (s *chatSessionService) AppendMessage(ctx context.Context, sessionId, userId uuid.UUID, role, content string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	now := s.now()
	message := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: sessionId,
		UserId:        userId,
		Role:          role,
		Content:       content,
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, message); err != nil {
		return err
	}

	session, err := uow.ChatSessionRepository().FindOne(ctx, specification.ByID{ID: sessionId})
	if err != nil {
		return err
	}
	if session != nil {
		session.UpdatedAt = &now
		if err := uow.ChatSessionRepository().Update(ctx, session); err != nil {
			return err
		}
	}

	return uow.Commit()
}

// RecentMessages returns at most limit messages of the session, oldest first.
func (s *chatSessionService) RecentMessages(ctx context.Context, sessionId uuid.UUID, limit int) ([]history.Entry, error) {
	if limit <= 0 {
		limit = history.DefaultLimit
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	entries := make([]history.Entry, len(messages))
	for i, m := range messages {
		entries[len(messages)-1-i] = history.Entry{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return entries, nil
}

func findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, userId, sessionId uuid.UUID) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func countMessages(ctx context.Context, uow unitofwork.UnitOfWork, sessionId uuid.UUID) (int64, error) {
	return uow.ChatMessageRepository().Count(ctx, specification.ByChatSessionID{ChatSessionID: sessionId})
}

func toSessionResponse(s *entity.ChatSession, messageCount int64) *dto.SessionResponse {
	return &dto.SessionResponse{
		Id:                 s.Id,
		Title:              s.Title,
		LastMessagePreview: s.LastMessagePreview,
		MessageCount:       messageCount,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
