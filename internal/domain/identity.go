package domain

import (
	"fmt"
	"sort"
	"strings"
)

// LinkedIdentity links one guild member to a catalog account.
type LinkedIdentity struct {
	ChatUserID      string
	CatalogUserID   int
	CatalogUserName string
	// DisplayName is the chat display name captured at link time.
	DisplayName string
}

func (i LinkedIdentity) Validate() error {
	if strings.TrimSpace(i.ChatUserID) == "" {
		return fmt.Errorf("chat user id is required")
	}
	if i.CatalogUserID <= 0 {
		return fmt.Errorf("catalog user id must be positive")
	}
	if strings.TrimSpace(i.CatalogUserName) == "" {
		return fmt.Errorf("catalog user name is required")
	}

	return nil
}

// Roster maps chat user IDs to their links within one guild.
type Roster map[string]LinkedIdentity

// Rosters maps guild IDs to rosters.
type Rosters map[string]Roster

// LinkedTo reports the chat user already linked to catalogUserName, if any.
func (r Roster) LinkedTo(catalogUserName string) (string, bool) {
	for chatUserID, identity := range r {
		if strings.EqualFold(identity.CatalogUserName, catalogUserName) {
			return chatUserID, true
		}
	}
	return "", false
}

func (r Roster) Clone() Roster {
	cloned := make(Roster, len(r))
	for id, identity := range r {
		cloned[id] = identity
	}
	return cloned
}

// Sorted returns the identities ordered by display name, then chat user ID.
func (r Roster) Sorted() []LinkedIdentity {
	identities := make([]LinkedIdentity, 0, len(r))
	for _, identity := range r {
		identities = append(identities, identity)
	}

	sort.Slice(identities, func(i, j int) bool {
		left := strings.ToLower(identities[i].DisplayName)
		right := strings.ToLower(identities[j].DisplayName)
		if left == right {
			return identities[i].ChatUserID < identities[j].ChatUserID
		}
		return left < right
	})

	return identities
}

func (r Rosters) Clone() Rosters {
	cloned := make(Rosters, len(r))
	for guildID, roster := range r {
		cloned[guildID] = roster.Clone()
	}
	return cloned
}
