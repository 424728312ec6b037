package repo

import (
	"context"
	"errors"
	"time"

	"github.com/LeventeLantos/condo-messaging/internal/model"
)

var ErrNotFound = errors.New("not found")

// ErrInvalidID is returned when an id argument is not well formed for the
// store, such as a non-uuid tenant id.
var ErrInvalidID = errors.New("invalid id")

type MessageRepository interface {
	InsertMessage(ctx context.Context, m *model.Message) error
	HasOutboundSince(ctx context.Context, tenantID, residentID string, since time.Time) (bool, error)
	ListThread(ctx context.Context, tenantID, residentID string, limit, offset int) ([]model.Message, error)
	ListConversations(ctx context.Context, tenantID string, limit int) ([]model.Message, error)
}

type SessionRepository interface {
	GetSession(ctx context.Context, tenantID, residentID string) (model.Session, error)
	InsertSession(ctx context.Context, s *model.Session) error
	TouchSession(ctx context.Context, id string, lastMessageAt, updatedAt time.Time) error
}

type IntegrationRepository interface {
	GetIntegration(ctx context.Context, tenantID string) (model.Integration, error)
	ListIntegrations(ctx context.Context, provider model.Provider) ([]model.Integration, error)
	SaveIntegration(ctx context.Context, in *model.Integration) error
	SetIntegrationStatus(ctx context.Context, tenantID string, status model.IntegrationStatus, at time.Time) error
	SetInstanceStatus(ctx context.Context, instanceID string, status model.IntegrationStatus, at time.Time) (int64, error)
}

// ResidentRepository only reads; phones are stored in local form.
type ResidentRepository interface {
	GetResident(ctx context.Context, id string) (model.Resident, error)
	FindResidentByPhone(ctx context.Context, localPhone string) (model.Resident, error)
}

type Store interface {
	MessageRepository
	SessionRepository
	IntegrationRepository
	ResidentRepository
}
