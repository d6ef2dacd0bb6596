package ports

import (
	"context"

	"github.com/bnema/anicord/internal/domain"
)

// IdentityStore persists every guild roster as one document. Save replaces
// the whole document.
type IdentityStore interface {
	Load(ctx context.Context) (domain.Rosters, error)
	Save(ctx context.Context, rosters domain.Rosters) error
}

type SettingsStore interface {
	LoadSettings(ctx context.Context) (domain.Settings, error)
	SaveSettings(ctx context.Context, settings domain.Settings) error
}
