package ports

import (
	"context"
	"errors"

	"github.com/bnema/anicord/internal/domain"
)

var (
	// ErrNotFound means the catalog answered and has no matching record.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks failures worth retrying: network, throttling, server
	// errors and malformed responses.
	ErrTransient = errors.New("transient catalog failure")
)

// Catalog is the read side of the external media catalog.
type Catalog interface {
	FindUser(ctx context.Context, idOrName string) (domain.User, error)
	FindMedia(ctx context.Context, idOrName string, mediaType domain.MediaType) (domain.Media, error)
	FindCharacter(ctx context.Context, idOrName string) (domain.Character, error)
	// SearchMedia searches every media type when mediaType is empty.
	SearchMedia(ctx context.Context, query string, mediaType domain.MediaType) ([]domain.Media, error)
	SearchCharacters(ctx context.Context, query string) ([]domain.Character, error)
	SearchUsers(ctx context.Context, query string) ([]domain.User, error)
	GetListEntry(ctx context.Context, catalogUserID int, mediaID int) (domain.ListEntry, error)
	SeasonalMedia(ctx context.Context, season domain.Season, year int, page int, perPage int) ([]domain.Media, error)
	TopMedia(ctx context.Context, catalogUserID int, page int, perPage int) ([]domain.TopEntry, error)
}
