package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/ports"
)

const (
	outcomeOK        = "ok"
	outcomeNotFound  = "not_found"
	outcomeTransient = "transient"
	outcomeCanceled  = "canceled"
	outcomeError     = "error"
)

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, ports.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCanceled
	case errors.Is(err, ports.ErrTransient):
		return outcomeTransient
	default:
		return outcomeError
	}
}

// instrumentedCatalog records one observation per catalog call.
type instrumentedCatalog struct {
	next    ports.Catalog
	metrics *Metrics
}

var _ ports.Catalog = (*instrumentedCatalog)(nil)

func (m *Metrics) InstrumentCatalog(next ports.Catalog) ports.Catalog {
	return &instrumentedCatalog{next: next, metrics: m}
}

func (c *instrumentedCatalog) FindUser(ctx context.Context, idOrName string) (domain.User, error) {
	started := time.Now()
	user, err := c.next.FindUser(ctx, idOrName)
	c.metrics.observeCatalog("find_user", started, err)
	return user, err
}

func (c *instrumentedCatalog) FindMedia(ctx context.Context, idOrName string, mediaType domain.MediaType) (domain.Media, error) {
	started := time.Now()
	media, err := c.next.FindMedia(ctx, idOrName, mediaType)
	c.metrics.observeCatalog("find_media", started, err)
	return media, err
}

func (c *instrumentedCatalog) FindCharacter(ctx context.Context, idOrName string) (domain.Character, error) {
	started := time.Now()
	character, err := c.next.FindCharacter(ctx, idOrName)
	c.metrics.observeCatalog("find_character", started, err)
	return character, err
}

func (c *instrumentedCatalog) SearchMedia(ctx context.Context, query string, mediaType domain.MediaType) ([]domain.Media, error) {
	started := time.Now()
	media, err := c.next.SearchMedia(ctx, query, mediaType)
	c.metrics.observeCatalog("search_media", started, err)
	return media, err
}

func (c *instrumentedCatalog) SearchCharacters(ctx context.Context, query string) ([]domain.Character, error) {
	started := time.Now()
	characters, err := c.next.SearchCharacters(ctx, query)
	c.metrics.observeCatalog("search_characters", started, err)
	return characters, err
}

func (c *instrumentedCatalog) SearchUsers(ctx context.Context, query string) ([]domain.User, error) {
	started := time.Now()
	users, err := c.next.SearchUsers(ctx, query)
	c.metrics.observeCatalog("search_users", started, err)
	return users, err
}

func (c *instrumentedCatalog) GetListEntry(ctx context.Context, catalogUserID int, mediaID int) (domain.ListEntry, error) {
	started := time.Now()
	entry, err := c.next.GetListEntry(ctx, catalogUserID, mediaID)
	c.metrics.observeCatalog("get_list_entry", started, err)
	return entry, err
}

func (c *instrumentedCatalog) SeasonalMedia(ctx context.Context, season domain.Season, year int, page int, perPage int) ([]domain.Media, error) {
	started := time.Now()
	media, err := c.next.SeasonalMedia(ctx, season, year, page, perPage)
	c.metrics.observeCatalog("seasonal_media", started, err)
	return media, err
}

func (c *instrumentedCatalog) TopMedia(ctx context.Context, catalogUserID int, page int, perPage int) ([]domain.TopEntry, error) {
	started := time.Now()
	entries, err := c.next.TopMedia(ctx, catalogUserID, page, perPage)
	c.metrics.observeCatalog("top_media", started, err)
	return entries, err
}
