// Package platform defines the chat-platform capabilities the bridge engine
// depends on. Each adapter receives these as explicit interfaces so the
// engine runs against the real gateway in production and against fakes in
// tests.
package platform

import (
	"context"

	"github.com/providentiaww/iga-slack-bridge/internal/models"
)

// SecretStore reads named secrets from the platform's secret service.
// A missing secret returns ok=false, not an error.
type SecretStore interface {
	GetSecret(ctx context.Context, name string) (value string, ok bool, err error)
}

// RecordStore persists access request records keyed by request id.
// Query applies no requester filter; callers filter the returned slice.
type RecordStore interface {
	Put(ctx context.Context, record models.AccessRequestRecord) error
	Query(ctx context.Context, limit int) ([]models.AccessRequestRecord, error)
}

// Messenger delivers a direct message to a platform user.
type Messenger interface {
	SendDM(ctx context.Context, userID, text string) error
}

// ViewPublisher pushes rendered views to the platform UI layer.
type ViewPublisher interface {
	OpenModal(ctx context.Context, triggerID string, view map[string]any) error
	UpdateModal(ctx context.Context, viewID, hash string, view map[string]any) error
	PublishHome(ctx context.Context, userID string, view map[string]any) error
}

// UserDirectory resolves profile details for a platform user.
type UserDirectory interface {
	UserEmail(ctx context.Context, userID string) (string, error)
}
