package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/ports"
	"go.uber.org/zap"
)

// RosterService owns every guild roster. Mutations of one guild are
// serialized, and every save writes a snapshot taken under the save lock so
// concurrent saves cannot reorder.
type RosterService struct {
	store   ports.IdentityStore
	catalog ports.Catalog
	logger  *zap.Logger

	mu      sync.RWMutex
	rosters domain.Rosters

	locksMu    sync.Mutex
	guildLocks map[string]*sync.Mutex

	saveMu sync.Mutex
}

func NewRosterService(ctx context.Context, store ports.IdentityStore, catalog ports.Catalog, logger *zap.Logger) (*RosterService, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rosters, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rosters: %w", err)
	}
	if rosters == nil {
		rosters = domain.Rosters{}
	}

	return &RosterService{
		store:      store,
		catalog:    catalog,
		logger:     logger,
		rosters:    rosters,
		guildLocks: map[string]*sync.Mutex{},
	}, nil
}

// EnsureGuild creates an empty roster the first time a guild is seen.
func (s *RosterService) EnsureGuild(ctx context.Context, guildID string) error {
	s.mu.RLock()
	_, ok := s.rosters[guildID]
	s.mu.RUnlock()
	if ok {
		return nil
	}

	unlock := s.lockGuild(guildID)
	defer unlock()

	return s.mutate(ctx, guildID, func(domain.Roster) bool { return true })
}

// Link resolves query against the catalog and links chatUserID to the
// resulting account. A chat user that is already linked is re-linked.
func (s *RosterService) Link(ctx context.Context, guildID, chatUserID, displayName, query string) (domain.LinkedIdentity, domain.User, error) {
	unlock := s.lockGuild(guildID)
	defer unlock()

	user, err := s.catalog.FindUser(ctx, query)
	if err != nil {
		return domain.LinkedIdentity{}, domain.User{}, fmt.Errorf("find catalog user %q: %w", query, err)
	}

	s.mu.RLock()
	owner, taken := s.rosters[guildID].LinkedTo(user.Name)
	s.mu.RUnlock()
	if taken && owner != chatUserID {
		return domain.LinkedIdentity{}, user, fmt.Errorf("%w: %s", domain.ErrCatalogUserTaken, user.Name)
	}

	identity := domain.LinkedIdentity{
		ChatUserID:      chatUserID,
		CatalogUserID:   user.ID,
		CatalogUserName: user.Name,
		DisplayName:     displayName,
	}
	if err := identity.Validate(); err != nil {
		return domain.LinkedIdentity{}, user, err
	}

	err = s.mutate(ctx, guildID, func(roster domain.Roster) bool {
		roster[chatUserID] = identity
		return true
	})
	if err != nil {
		return domain.LinkedIdentity{}, user, err
	}

	s.logger.Info("linked catalog account",
		zap.String("guild", guildID),
		zap.String("chat_user", chatUserID),
		zap.String("catalog_user", user.Name),
	)

	return identity, user, nil
}

func (s *RosterService) Unlink(ctx context.Context, guildID, chatUserID string) error {
	unlock := s.lockGuild(guildID)
	defer unlock()

	removed := false
	err := s.mutate(ctx, guildID, func(roster domain.Roster) bool {
		if _, ok := roster[chatUserID]; !ok {
			return false
		}
		delete(roster, chatUserID)
		removed = true
		return true
	})
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrIdentityNotLinked
	}

	return nil
}

// MemberLeft drops the link of a member who left the guild, if any.
func (s *RosterService) MemberLeft(ctx context.Context, guildID, chatUserID string) error {
	err := s.Unlink(ctx, guildID, chatUserID)
	if errors.Is(err, domain.ErrIdentityNotLinked) {
		return nil
	}
	return err
}

// Roster returns a sorted snapshot of the guild roster.
func (s *RosterService) Roster(guildID string) []domain.LinkedIdentity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.rosters[guildID].Sorted()
}

// Lookup finds the link for a mention ("<@123>", "<@!123>") or raw chat user ID.
func (s *RosterService) Lookup(guildID, token string) (domain.LinkedIdentity, bool) {
	chatUserID := strings.Trim(strings.TrimSpace(token), "<@!>")
	if chatUserID == "" {
		return domain.LinkedIdentity{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.rosters[guildID][chatUserID]
	return identity, ok
}

// Resolve maps a mention or chat user ID to its linked catalog user name
// and returns any other token unchanged.
func (s *RosterService) Resolve(guildID, token string) string {
	if identity, ok := s.Lookup(guildID, token); ok {
		return identity.CatalogUserName
	}
	return token
}

// mutate applies fn to the guild roster and persists the result. fn reports
// whether it changed anything; unchanged rosters are not saved. On save
// failure the in-memory roster is restored.
func (s *RosterService) mutate(ctx context.Context, guildID string, fn func(domain.Roster) bool) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	previous, existed := s.rosters[guildID]
	roster := previous.Clone()
	if !fn(roster) {
		s.mu.Unlock()
		return nil
	}
	s.rosters[guildID] = roster
	snapshot := s.rosters.Clone()
	s.mu.Unlock()

	if err := s.store.Save(ctx, snapshot); err != nil {
		s.mu.Lock()
		if existed {
			s.rosters[guildID] = previous
		} else {
			delete(s.rosters, guildID)
		}
		s.mu.Unlock()
		return fmt.Errorf("save rosters: %w", err)
	}

	return nil
}

func (s *RosterService) lockGuild(guildID string) func() {
	s.locksMu.Lock()
	mu, ok := s.guildLocks[guildID]
	if !ok {
		mu = &sync.Mutex{}
		s.guildLocks[guildID] = mu
	}
	s.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
