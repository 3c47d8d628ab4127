package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"library-ai-be/internal/entity"
	"library-ai-be/internal/repository/contract"
	"library-ai-be/internal/repository/specification"
	"library-ai-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// memStore is an in-memory stand-in for the database. It understands the
// specifications the services use.
type memStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*entity.User
	sessions map[uuid.UUID]*entity.ChatSession
	messages []*entity.ChatMessage
	books    []*entity.Book

	failBooks    error
	failSessions error
	commits      int
	bookQueries  int
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[uuid.UUID]*entity.User{},
		sessions: map[uuid.UUID]*entity.ChatSession{},
	}
}

func (s *memStore) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUoW{store: s}
}

type memUoW struct {
	store *memStore
}

func (u *memUoW) Begin(ctx context.Context) error { return nil }
func (u *memUoW) Commit() error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	u.store.commits++
	return nil
}
func (u *memUoW) Rollback() error { return nil }

func (u *memUoW) UserRepository() contract.UserRepository               { return memUsers{u.store} }
func (u *memUoW) ChatSessionRepository() contract.ChatSessionRepository { return memSessions{u.store} }
func (u *memUoW) ChatMessageRepository() contract.ChatMessageRepository { return memMessages{u.store} }
func (u *memUoW) BookRepository() contract.BookRepository               { return memBooks{u.store} }

type filterSet struct {
	id        *uuid.UUID
	userID    *uuid.UUID
	sessionID *uuid.UUID
	keyword   string
	order     *specification.OrderBy
	limit     int
}

func parseSpecs(specs []specification.Specification) filterSet {
	var f filterSet
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			f.id = &s.ID
		case specification.UserOwnedBy:
			f.userID = &s.UserID
		case specification.ByChatSessionID:
			f.sessionID = &s.ChatSessionID
		case specification.BookKeywordContains:
			f.keyword = strings.ToLower(strings.TrimSpace(s.Keyword))
		case specification.OrderBy:
			o := s
			f.order = &o
		case specification.Pagination:
			f.limit = s.Limit
		}
	}
	return f
}

func (f filterSet) match(id, userID, sessionID uuid.UUID) bool {
	if f.id != nil && *f.id != id {
		return false
	}
	if f.userID != nil && *f.userID != userID {
		return false
	}
	if f.sessionID != nil && *f.sessionID != sessionID {
		return false
	}
	return true
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *user
	r.s.users[user.Id] = &cp
	return nil
}

func (r memUsers) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := parseSpecs(specs)
	for _, u := range r.s.users {
		if f.id == nil || *f.id == u.Id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

type memSessions struct{ s *memStore }

func (r memSessions) Create(ctx context.Context, session *entity.ChatSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSessions != nil {
		return r.s.failSessions
	}
	cp := *session
	r.s.sessions[session.Id] = &cp
	return nil
}

func (r memSessions) Update(ctx context.Context, session *entity.ChatSession) error {
	return r.Create(ctx, session)
}

func (r memSessions) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sessions, id)
	return nil
}

func (r memSessions) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, s := range r.s.sessions {
		if s.UserId == userId {
			delete(r.s.sessions, id)
		}
	}
	return nil
}

func (r memSessions) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r memSessions) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failSessions != nil {
		return nil, r.s.failSessions
	}
	f := parseSpecs(specs)
	var out []*entity.ChatSession
	for _, s := range r.s.sessions {
		if f.match(s.Id, s.UserId, uuid.Nil) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if f.order != nil && f.order.Desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type memMessages struct{ s *memStore }

func (r memMessages) Create(ctx context.Context, message *entity.ChatMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *message
	r.s.messages = append(r.s.messages, &cp)
	return nil
}

func (r memMessages) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	return r.deleteWhere(func(m *entity.ChatMessage) bool { return m.ChatSessionId == sessionId })
}

func (r memMessages) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	return r.deleteWhere(func(m *entity.ChatMessage) bool { return m.UserId == userId })
}

func (r memMessages) deleteWhere(drop func(*entity.ChatMessage) bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if !drop(m) {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

func (r memMessages) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f := parseSpecs(specs)
	var out []*entity.ChatMessage
	for _, m := range r.s.messages {
		if f.match(m.Id, m.UserId, m.ChatSessionId) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.order != nil && f.order.Desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if f.limit > 0 && len(out) > f.limit {
		out = out[:f.limit]
	}
	return out, nil
}

func (r memMessages) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

type memBooks struct{ s *memStore }

func (r memBooks) Create(ctx context.Context, book *entity.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *book
	r.s.books = append(r.s.books, &cp)
	return nil
}

func (r memBooks) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Book, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.bookQueries++
	if r.s.failBooks != nil {
		return nil, r.s.failBooks
	}
	f := parseSpecs(specs)
	var out []*entity.Book
	for _, b := range r.s.books {
		hay := strings.ToLower(b.Title + " " + b.Author + " " + b.Description + " " + strings.Join(b.Tags, " "))
		if f.keyword == "" || strings.Contains(hay, f.keyword) {
			cp := *b
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rating(out[i]) > rating(out[j])
	})
	if f.limit > 0 && len(out) > f.limit {
		out = out[:f.limit]
	}
	return out, nil
}

func (r memBooks) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

func rating(b *entity.Book) float64 {
	if b.Rating == nil {
		return 0
	}
	return *b.Rating
}

var errDatabase = errors.New("database unavailable")
