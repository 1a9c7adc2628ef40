package delivery

import (
	"context"

	"github.com/diewo77/invoice-relay/internal/models"
)

// Channel names.
const (
	ChannelLocal   = "local"
	ChannelPrint   = "print"
	ChannelWebhook = "webhook"
	ChannelEmail   = "email"
)

// Artifact is a rendered invoice.
type Artifact struct {
	Filename string
	PDF      []byte
}

// Channel delivers an artifact along with the invoice it was rendered from.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, a Artifact, inv models.Invoice) Outcome
}

// Relay is a remote channel with its own persisted configuration and a connectivity test.
type Relay[C any] interface {
	Channel
	Test(ctx context.Context) Outcome
	Config() C
	UpdateConfig(ctx context.Context, c C) error
}

// SettingsStore persists relay configurations.
type SettingsStore interface {
	LoadSetting(ctx context.Context, key string, dst any) (bool, error)
	SaveSetting(ctx context.Context, key string, v any) error
}
