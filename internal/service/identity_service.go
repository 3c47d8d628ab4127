package service

import (
	"context"
	"fmt"

	"library-ai-be/internal/pkg/serverutils"
	"library-ai-be/internal/repository/specification"
	"library-ai-be/internal/repository/unitofwork"
	"library-ai-be/pkg/assistant/orchestrator"

	"github.com/google/uuid"
)

// IdentityService turns a bearer credential into the caller's identity and
// profile. A user without a stored profile is still a valid caller.
type IdentityService struct {
	uowFactory unitofwork.RepositoryFactory
	secret     string
}

var _ orchestrator.IdentityResolver = (*IdentityService)(nil)

func NewIdentityService(uowFactory unitofwork.RepositoryFactory, jwtSecret string) *IdentityService {
	return &IdentityService{uowFactory: uowFactory, secret: jwtSecret}
}

func (s *IdentityService) Resolve(ctx context.Context, credential string) (orchestrator.Identity, error) {
	raw, err := serverutils.ParseUserID(serverutils.BearerToken(credential), s.secret)
	if err != nil {
		return orchestrator.Identity{}, err
	}

	userId, err := uuid.Parse(raw)
	if err != nil {
		return orchestrator.Identity{}, fmt.Errorf("%w: user_id is not a uuid", serverutils.ErrInvalidClaims)
	}
	identity := orchestrator.Identity{UserID: userId}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return orchestrator.Identity{}, fmt.Errorf("load user profile: %w", err)
	}
	if user != nil {
		identity.Grade = user.Grade
		identity.Major = user.Major
	}
	return identity, nil
}
