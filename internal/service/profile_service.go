package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/bounty-service/internal/domain"
	"github.com/spec-kit/bounty-service/internal/events"
	"github.com/spec-kit/bounty-service/internal/policy"
	"github.com/spec-kit/bounty-service/internal/repository"
	apperrors "github.com/spec-kit/bounty-service/pkg/util"
)

// ProfileService manages user profiles. Role is validated once here and is
// immutable afterwards; no update operation accepts it.
type ProfileService struct {
	store      repository.Store
	tx         repository.TxRunner
	dispatcher events.Dispatcher
}

// ProfileDependencies bundles collaborators for the service.
type ProfileDependencies struct {
	Store      repository.Store
	Tx         repository.TxRunner
	Dispatcher events.Dispatcher
}

// NewProfileService constructs the service.
func NewProfileService(deps ProfileDependencies) *ProfileService {
	return &ProfileService{store: deps.Store, tx: deps.Tx, dispatcher: deps.Dispatcher}
}

// ProfileCreateInput describes profile creation payload. PasswordHash is
// already hashed by the auth layer.
type ProfileCreateInput struct {
	Email        string
	DisplayName  string
	Role         domain.UserRole
	CompanyName  *string
	PasswordHash string
}

// CreateProfile stores a new profile and records USER_CREATED.
func (s *ProfileService) CreateProfile(ctx context.Context, input ProfileCreateInput) (*domain.UserProfile, error) {
	email := strings.TrimSpace(input.Email)
	displayName := strings.TrimSpace(input.DisplayName)
	if email == "" || displayName == "" {
		return nil, apperrors.NewValidationError("email and display name required", nil)
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("role must be developer or company", map[string]any{
			"role": input.Role,
		})
	}
	if input.Role == domain.RoleCompany && (input.CompanyName == nil || strings.TrimSpace(*input.CompanyName) == "") {
		return nil, apperrors.NewValidationError("company accounts require a company name", nil)
	}

	profile := &domain.UserProfile{
		Email:        email,
		DisplayName:  displayName,
		Role:         input.Role,
		PasswordHash: input.PasswordHash,
	}
	if input.Role == domain.RoleCompany {
		profile.CompanyName = input.CompanyName
	}

	err := s.tx.WithinTx(ctx, func(r repository.Store) error {
		if err := r.Users.Create(ctx, profile); err != nil {
			return err
		}
		return r.Audit.Append(ctx, &domain.AuditLogEntry{
			EventType:        domain.EventUserCreated,
			ActorUserID:      profile.ID,
			ActorDisplayName: profile.DisplayName,
			TargetUserID:     &profile.ID,
			Details: domain.TextDetails(fmt.Sprintf("User %s (%s) created as %s.",
				profile.DisplayName, profile.Email, profile.Role)),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type: events.EventUserCreated,
		Actor: events.Actor{
			UserID:      profile.ID,
			DisplayName: profile.DisplayName,
			Role:        profile.Role,
		},
		Payload: events.UserCreatedPayload{
			UserID: profile.ID,
			Email:  profile.Email,
			Role:   profile.Role,
		},
	})
	return profile, nil
}

// GetProfile fetches a profile by id.
func (s *ProfileService) GetProfile(ctx context.Context, id string) (*domain.UserProfile, error) {
	profile, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr("user", err)
	}
	return profile, nil
}

// UpdatePayoutAddress sets the BTC payout address on the developer's own
// profile. Companies have no payout address and nobody edits another's.
func (s *ProfileService) UpdatePayoutAddress(ctx context.Context, actor Actor, profileID, address string) error {
	if !policy.CanUpdatePayoutAddress(actor.Role, actor.ID, profileID) {
		return apperrors.NewForbidden("payout address is developer-owned")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return apperrors.NewValidationError("payout address required", nil)
	}
	if err := s.store.Users.UpdatePayoutAddress(ctx, profileID, address); err != nil {
		return notFoundOr("user", err)
	}
	return nil
}

func (s *ProfileService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
