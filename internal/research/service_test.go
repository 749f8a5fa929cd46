package research

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/emberhollow/arcanum/internal/key"
)

// stubFlags is a FlagSource with fixed values.
type stubFlags struct {
	researching  bool
	freeCreative bool
}

func (s stubFlags) ResearchingEnabled() bool             { return s.researching }
func (s stubFlags) FreeCreativeResearchingEnabled() bool { return s.freeCreative }

// memoryRepository is an in-memory ProfileRepository for tests.
type memoryRepository struct {
	profiles map[uuid.UUID]*Profile
	saveErr  error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{profiles: make(map[uuid.UUID]*Profile)}
}

func (m *memoryRepository) Find(id uuid.UUID) (*Profile, error) {
	p, ok := m.profiles[id]
	if !ok {
		return nil, &ProfileNotFoundError{ID: id}
	}
	return p, nil
}

func (m *memoryRepository) Save(p *Profile) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.profiles[p.ID] = p
	return nil
}

func testResearch(t *testing.T, cost int) *Research {
	t.Helper()
	return MustNew(key.MustNew("arcanum", "infused_alloys"), "Infused Alloys", cost)
}

func TestUnlock_ChargesCost(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(stubFlags{researching: true}, repo)
	playerID := uuid.New()

	require.NoError(t, svc.GrantLevels(playerID, "aveline", 20))
	r := testResearch(t, 12)

	require.NoError(t, svc.Unlock(playerID, "aveline", r, false))

	profile, err := repo.Find(playerID)
	require.NoError(t, err)
	require.Equal(t, 8, profile.Levels)
	require.True(t, profile.HasUnlocked(r.Key()))
}

func TestUnlock_DisabledResearching(t *testing.T) {
	svc := NewService(stubFlags{researching: false}, newMemoryRepository())

	err := svc.Unlock(uuid.New(), "aveline", testResearch(t, 1), false)
	require.ErrorIs(t, err, ErrResearchingDisabled)
}

func TestUnlock_InsufficientLevels(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(stubFlags{researching: true}, repo)
	playerID := uuid.New()

	err := svc.Unlock(playerID, "aveline", testResearch(t, 12), false)
	require.ErrorIs(t, err, ErrInsufficientLevels)

	_, findErr := repo.Find(playerID)
	require.Error(t, findErr, "a failed unlock must not create a profile")
}

func TestUnlock_FreeInCreative(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(stubFlags{researching: true, freeCreative: true}, repo)
	playerID := uuid.New()

	r := testResearch(t, 12)
	require.NoError(t, svc.Unlock(playerID, "aveline", r, true))

	profile, err := repo.Find(playerID)
	require.NoError(t, err)
	require.Equal(t, 0, profile.Levels, "no levels were charged")
	require.True(t, profile.HasUnlocked(r.Key()))
}

func TestUnlock_CreativeStillChargedWithoutFlag(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(stubFlags{researching: true, freeCreative: false}, repo)

	err := svc.Unlock(uuid.New(), "aveline", testResearch(t, 12), true)
	require.ErrorIs(t, err, ErrInsufficientLevels)
}

func TestUnlock_AlreadyUnlockedIsNoOp(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(stubFlags{researching: true}, repo)
	playerID := uuid.New()

	require.NoError(t, svc.GrantLevels(playerID, "aveline", 12))
	r := testResearch(t, 12)

	require.NoError(t, svc.Unlock(playerID, "aveline", r, false))
	require.NoError(t, svc.Unlock(playerID, "aveline", r, false))

	profile, err := repo.Find(playerID)
	require.NoError(t, err)
	require.Equal(t, 0, profile.Levels, "second unlock must not charge again")
}

func TestUnlock_SaveFailureSurfaces(t *testing.T) {
	repo := newMemoryRepository()
	repo.saveErr = fmt.Errorf("disk full")
	svc := NewService(stubFlags{researching: true, freeCreative: true}, repo)

	err := svc.Unlock(uuid.New(), "aveline", testResearch(t, 0), false)
	require.ErrorContains(t, err, "disk full")
}

func TestUnlock_RecordsUnlockTime(t *testing.T) {
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	prev := timeNow
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = prev }()

	repo := newMemoryRepository()
	svc := NewService(stubFlags{researching: true}, repo)
	playerID := uuid.New()
	r := testResearch(t, 0)

	require.NoError(t, svc.Unlock(playerID, "aveline", r, false))

	profile, err := repo.Find(playerID)
	require.NoError(t, err)
	require.Equal(t, fixed, profile.Unlocked[r.Key()])
}

func TestGrantLevels_RejectsNegative(t *testing.T) {
	svc := NewService(stubFlags{researching: true}, newMemoryRepository())
	require.Error(t, svc.GrantLevels(uuid.New(), "aveline", -1))
}

func TestHasUnlocked(t *testing.T) {
	repo := newMemoryRepository()
	svc := NewService(stubFlags{researching: true}, repo)
	playerID := uuid.New()
	r := testResearch(t, 0)

	unlocked, err := svc.HasUnlocked(playerID, r)
	require.NoError(t, err)
	require.False(t, unlocked, "unknown players have unlocked nothing")

	require.NoError(t, svc.Unlock(playerID, "aveline", r, false))

	unlocked, err = svc.HasUnlocked(playerID, r)
	require.NoError(t, err)
	require.True(t, unlocked)
}
