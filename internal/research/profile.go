package research

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emberhollow/arcanum/internal/key"
)

// Profile is a player's persisted research state: a level balance and
// the set of unlocked researches.
type Profile struct {
	ID        uuid.UUID
	Name      string
	Levels    int
	Unlocked  map[key.NamespacedKey]time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProfile creates an empty profile for a player.
func NewProfile(id uuid.UUID, name string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		ID:        id,
		Name:      name,
		Unlocked:  make(map[key.NamespacedKey]time.Time),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasUnlocked reports whether the profile has unlocked the given research.
func (p *Profile) HasUnlocked(k key.NamespacedKey) bool {
	_, ok := p.Unlocked[k]
	return ok
}

// ProfileNotFoundError indicates no profile exists for a player ID.
type ProfileNotFoundError struct {
	ID uuid.UUID
}

func (e *ProfileNotFoundError) Error() string {
	return fmt.Sprintf("no profile for player %s", e.ID)
}

// ProfileRepository persists player profiles.
type ProfileRepository interface {
	// Find retrieves a profile by player ID.
	// Returns ProfileNotFoundError if none exists.
	Find(id uuid.UUID) (*Profile, error)

	// Save persists a profile, inserting or updating as needed.
	// Unlock rows are written additively; unlocks are never removed.
	Save(p *Profile) error
}
