package clerkwebhook

import (
	"context"
	"errors"

	"github.com/angelmondragon/storefront-gateway/internal/users"
	"github.com/angelmondragon/storefront-gateway/pkg/db/models"
	"github.com/angelmondragon/storefront-gateway/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-gateway/pkg/errors"
	"github.com/angelmondragon/storefront-gateway/pkg/logger"
)

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type ServiceParams struct {
	Users  userRepository
	Logger *logger.Logger
}

type Service struct {
	users  userRepository
	logger *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repo required")
	}
	return &Service{
		users:  params.Users,
		logger: params.Logger,
	}, nil
}

// HandleEvent applies a verified event. Event types other than user.created
// are acknowledged without side effects.
func (s *Service) HandleEvent(ctx context.Context, event Event) error {
	switch event.Type {
	case EventUserCreated:
		return s.provisionUser(ctx, event)
	default:
		return nil
	}
}

func (s *Service) provisionUser(ctx context.Context, event Event) error {
	payload, err := decodeIdentity(event.Data)
	if err != nil {
		return err
	}

	email, ok := payload.PrimaryEmail()
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "no primary email found")
	}

	created, err := s.users.Create(ctx, users.CreateUserDTO{
		ID:           payload.ID,
		Email:        email,
		Name:         payload.DisplayName(),
		Role:         enums.UserRoleUser,
		IsSubscribed: false,
	})
	if err != nil {
		if errors.Is(err, users.ErrUserExists) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "user exists").
				WithDetails(map[string]any{"user_id": payload.ID})
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	if s.logger != nil {
		logCtx := s.logger.WithField(ctx, "user", users.FromModel(created))
		s.logger.Info(logCtx, "user provisioned")
	}
	return nil
}
