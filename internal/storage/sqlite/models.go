package sqlite

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emberhollow/arcanum/internal/key"
	"github.com/emberhollow/arcanum/internal/research"
)

// ProfileModel represents the database row for the profiles table.
// Time values are stored as Unix timestamps.
type ProfileModel struct {
	ID        string
	Name      string
	Levels    int
	CreatedAt int64
	UpdatedAt int64
}

// UnlockModel represents one row of the unlocked_researches table.
type UnlockModel struct {
	ProfileID   string
	ResearchKey string
	UnlockedAt  int64
}

// toProfileModel converts a domain profile to its database row.
func toProfileModel(p *research.Profile) *ProfileModel {
	return &ProfileModel{
		ID:        p.ID.String(),
		Name:      p.Name,
		Levels:    p.Levels,
		CreatedAt: p.CreatedAt.Unix(),
		UpdatedAt: p.UpdatedAt.Unix(),
	}
}

// toDomain converts a database row plus its unlock rows back to a
// domain profile.
func (m *ProfileModel) toDomain(unlocks []UnlockModel) (*research.Profile, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing profile id %q: %w", m.ID, err)
	}

	unlocked := make(map[key.NamespacedKey]time.Time, len(unlocks))
	for _, u := range unlocks {
		k, err := key.Parse(u.ResearchKey)
		if err != nil {
			return nil, fmt.Errorf("parsing research key %q: %w", u.ResearchKey, err)
		}
		unlocked[k] = time.Unix(u.UnlockedAt, 0).UTC()
	}

	return &research.Profile{
		ID:        id,
		Name:      m.Name,
		Levels:    m.Levels,
		Unlocked:  unlocked,
		CreatedAt: time.Unix(m.CreatedAt, 0).UTC(),
		UpdatedAt: time.Unix(m.UpdatedAt, 0).UTC(),
	}, nil
}
