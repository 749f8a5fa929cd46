package research

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emberhollow/arcanum/internal/log"
)

// timeNow is stubbed in tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// ErrResearchingDisabled is returned when unlocking is attempted while
// researching is turned off in the researches config.
var ErrResearchingDisabled = errors.New("researching is disabled")

// ErrInsufficientLevels is returned when a player cannot afford a
// research's cost.
var ErrInsufficientLevels = errors.New("insufficient levels")

// FlagSource exposes the cached config flags the unlock flow depends on.
// *config.Manager satisfies it.
type FlagSource interface {
	ResearchingEnabled() bool
	FreeCreativeResearchingEnabled() bool
}

// Service performs research unlocks against persisted player profiles.
type Service struct {
	flags    FlagSource
	profiles ProfileRepository
}

// NewService creates an unlock service.
func NewService(flags FlagSource, profiles ProfileRepository) *Service {
	return &Service{flags: flags, profiles: profiles}
}

// Unlock unlocks r for the player, charging its cost in levels.
// In creative mode the cost is waived when free-in-creative-mode is set.
// Unlocking an already-unlocked research is a no-op.
func (s *Service) Unlock(playerID uuid.UUID, playerName string, r *Research, creative bool) error {
	if !s.flags.ResearchingEnabled() {
		return ErrResearchingDisabled
	}

	profile, err := s.profiles.Find(playerID)
	if err != nil {
		var notFound *ProfileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("loading profile: %w", err)
		}
		profile = NewProfile(playerID, playerName)
	}

	if profile.HasUnlocked(r.Key()) {
		return nil
	}

	cost := r.Cost()
	if creative && s.flags.FreeCreativeResearchingEnabled() {
		cost = 0
	}
	if profile.Levels < cost {
		return fmt.Errorf("%w: research %s costs %d, player has %d",
			ErrInsufficientLevels, r.Key(), cost, profile.Levels)
	}

	profile.Levels -= cost
	profile.Unlocked[r.Key()] = timeNow()

	if err := s.profiles.Save(profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}

	log.Info(log.CatResearch, "research unlocked",
		"player", playerID, "research", r.Key().String(), "cost", cost)
	return nil
}

// GrantLevels adds levels to a player's balance, creating the profile if
// needed.
func (s *Service) GrantLevels(playerID uuid.UUID, playerName string, levels int) error {
	if levels < 0 {
		return fmt.Errorf("cannot grant negative levels (%d)", levels)
	}

	profile, err := s.profiles.Find(playerID)
	if err != nil {
		var notFound *ProfileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("loading profile: %w", err)
		}
		profile = NewProfile(playerID, playerName)
	}

	profile.Levels += levels
	if err := s.profiles.Save(profile); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// HasUnlocked reports whether the player has unlocked r.
// Players without a profile have unlocked nothing.
func (s *Service) HasUnlocked(playerID uuid.UUID, r *Research) (bool, error) {
	profile, err := s.profiles.Find(playerID)
	if err != nil {
		var notFound *ProfileNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading profile: %w", err)
	}
	return profile.HasUnlocked(r.Key()), nil
}
