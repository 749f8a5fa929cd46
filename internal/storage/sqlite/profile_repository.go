package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/emberhollow/arcanum/internal/research"
)

// profileRepository implements research.ProfileRepository using SQLite.
type profileRepository struct {
	db *sql.DB
}

func newProfileRepository(db *sql.DB) *profileRepository {
	return &profileRepository{db: db}
}

var _ research.ProfileRepository = (*profileRepository)(nil)

// Find retrieves a profile by player ID.
// Returns ProfileNotFoundError if no matching profile exists.
func (r *profileRepository) Find(id uuid.UUID) (*research.Profile, error) {
	row := r.db.QueryRow(
		`SELECT id, name, levels, created_at, updated_at FROM profiles WHERE id = ?`,
		id.String(),
	)

	var model ProfileModel
	err := row.Scan(&model.ID, &model.Name, &model.Levels, &model.CreatedAt, &model.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &research.ProfileNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	unlocks, err := r.findUnlocks(id)
	if err != nil {
		return nil, err
	}
	return model.toDomain(unlocks)
}

func (r *profileRepository) findUnlocks(id uuid.UUID) ([]UnlockModel, error) {
	rows, err := r.db.Query(
		`SELECT profile_id, research_key, unlocked_at FROM unlocked_researches
		 WHERE profile_id = ? ORDER BY unlocked_at`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var unlocks []UnlockModel
	for rows.Next() {
		var u UnlockModel
		if err := rows.Scan(&u.ProfileID, &u.ResearchKey, &u.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan unlock row: %w", err)
		}
		unlocks = append(unlocks, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unlock rows: %w", err)
	}
	return unlocks, nil
}

// Save persists a profile, inserting or updating the profiles row and
// appending any new unlock rows. Unlocks already stored are kept; they
// are never removed.
func (r *profileRepository) Save(p *research.Profile) error {
	model := toProfileModel(p)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO profiles (id, name, levels, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     levels = excluded.levels,
		     updated_at = excluded.updated_at`,
		model.ID, model.Name, model.Levels, model.CreatedAt, model.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	for k, unlockedAt := range p.Unlocked {
		_, err = tx.Exec(
			`INSERT OR IGNORE INTO unlocked_researches (profile_id, research_key, unlocked_at)
			 VALUES (?, ?, ?)`,
			model.ID, k.String(), unlockedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert unlock: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
