package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/emberhollow/arcanum/internal/item"
	"github.com/emberhollow/arcanum/internal/key"
	"github.com/emberhollow/arcanum/internal/pubsub"
	"github.com/emberhollow/arcanum/internal/registry"
	"github.com/emberhollow/arcanum/internal/research"
)

func newTestManager(t *testing.T, reg registry.Registry) (*Manager, string) {
	t.Helper()
	dir := t.TempDir()
	m, err := NewManager(Options{Dir: dir, Registry: reg})
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m, dir
}

func TestNewManager_CreatesDefaultConfigs(t *testing.T) {
	m, dir := newTestManager(t, registry.NewInMemory())

	for _, name := range []string{PluginConfigFile, ItemsConfigFile, ResearchesConfigFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, "%s should be created from its template", name)
	}

	// Flags reflect the default templates.
	require.False(t, m.BackwardsCompatible())
	require.True(t, m.AutoUpdatesEnabled())
	require.True(t, m.FreeCreativeResearchingEnabled())
	require.True(t, m.ResearchFireworksEnabled())
	require.True(t, m.VanillaRecipesShown())
	require.True(t, m.GuideGivenOnFirstJoin())
	require.True(t, m.TalismanMessageInActionbar())
	require.False(t, m.ExcessGiveItemsDropped())
	require.False(t, m.DuplicateBlockLoggingEnabled())
}

func TestNewManager_ResearchingDefaultsToEnabled(t *testing.T) {
	dir := t.TempDir()
	// researches.yml without the master switch key at all
	require.NoError(t, os.WriteFile(filepath.Join(dir, ResearchesConfigFile),
		[]byte("arcanum:\n  void_theory:\n    cost: 30\n"), 0o600))

	m, err := NewManager(Options{Dir: dir, Registry: registry.NewInMemory()})
	require.NoError(t, err)
	defer m.Close()

	require.True(t, m.ResearchingEnabled())
}

func TestReload_FlagsMirrorDocuments(t *testing.T) {
	m, dir := newTestManager(t, registry.NewInMemory())

	require.NoError(t, os.WriteFile(filepath.Join(dir, PluginConfigFile), []byte(`
options:
  backwards-compatibility: true
  auto-update: false
  log-duplicate-block-entries: true
  drop-excess-give-items: true
researches:
  free-in-creative-mode: false
  enable-fireworks: false
guide:
  show-vanilla-recipes: false
  receive-on-first-join: false
talismans:
  use-actionbar: false
`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ResearchesConfigFile),
		[]byte("enable-researching: false\n"), 0o600))

	require.True(t, m.Reload())

	require.True(t, m.BackwardsCompatible())
	require.False(t, m.AutoUpdatesEnabled())
	require.True(t, m.DuplicateBlockLoggingEnabled())
	require.True(t, m.ExcessGiveItemsDropped())
	require.False(t, m.FreeCreativeResearchingEnabled())
	require.False(t, m.ResearchFireworksEnabled())
	require.False(t, m.VanillaRecipesShown())
	require.False(t, m.GuideGivenOnFirstJoin())
	require.False(t, m.TalismanMessageInActionbar())
	require.False(t, m.ResearchingEnabled())
}

func TestReload_DocumentFailureKeepsCachedFlags(t *testing.T) {
	m, dir := newTestManager(t, registry.NewInMemory())

	require.True(t, m.AutoUpdatesEnabled())

	require.NoError(t, os.WriteFile(filepath.Join(dir, PluginConfigFile),
		[]byte("options: [broken\n"), 0o600))

	require.False(t, m.Reload())
	require.True(t, m.AutoUpdatesEnabled(), "failed load must not clear cached flags")
}

func TestReload_RefreshesResearchCosts(t *testing.T) {
	reg := registry.NewInMemory()
	res := research.MustNew(key.MustNew("arcanum", "void_theory"), "Void Theory", 30)
	require.NoError(t, reg.RegisterResearch(res))

	m, dir := newTestManager(t, reg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ResearchesConfigFile),
		[]byte("arcanum:\n  void_theory:\n    cost: 45\n"), 0o600))

	require.True(t, m.Reload())
	require.Equal(t, 45, res.Cost())
}

func TestReload_MissingCostRegistersDefault(t *testing.T) {
	reg := registry.NewInMemory()
	res := research.MustNew(key.MustNew("arcanum", "arcane_conduits"), "Arcane Conduits", 18)
	require.NoError(t, reg.RegisterResearch(res))

	m, _ := newTestManager(t, reg)

	require.True(t, m.Reload())
	require.Equal(t, 18, res.Cost(), "cost stays at its registered value")
	require.Equal(t, 18, m.ResearchesConfig().GetInt("arcanum.arcane_conduits.cost"),
		"current cost registered as the document default")
}

func TestReload_BadCostContinuesWithOtherResearches(t *testing.T) {
	reg := registry.NewInMemory()
	bad := research.MustNew(key.MustNew("arcanum", "elemental_basics"), "Elemental Basics", 5)
	good := research.MustNew(key.MustNew("arcanum", "void_theory"), "Void Theory", 30)
	require.NoError(t, reg.RegisterResearch(bad))
	require.NoError(t, reg.RegisterResearch(good))

	m, dir := newTestManager(t, reg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ResearchesConfigFile), []byte(`
arcanum:
  elemental_basics:
    cost: "not a number"
  void_theory:
    cost: 45
`), 0o600))

	require.False(t, m.Reload())
	require.Equal(t, 5, bad.Cost(), "invalid cost leaves the current value")
	require.Equal(t, 45, good.Cost(), "later researches still processed")
}

func TestReload_AppliesItemEnabledState(t *testing.T) {
	reg := registry.NewInMemory()
	it := item.New(key.MustNew("arcanum", "magma_core"), "Magma Core")
	require.NoError(t, reg.RegisterItem(it))

	m, dir := newTestManager(t, reg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ItemsConfigFile),
		[]byte("\"arcanum:magma_core\":\n  enabled: false\n"), 0o600))

	require.True(t, m.Reload())
	require.False(t, it.Enabled())
}

func TestReload_MissingEnabledDefaultsToTrue(t *testing.T) {
	reg := registry.NewInMemory()
	it := item.New(key.MustNew("arcanum", "guide_tome"), "Guide Tome")
	it.SetEnabled(false)
	require.NoError(t, reg.RegisterItem(it))

	m, _ := newTestManager(t, reg)

	require.True(t, m.Reload())
	require.True(t, it.Enabled())
}

func TestReload_OneItemFailureDoesNotStopOthers(t *testing.T) {
	reg := registry.NewInMemory()
	// Sorted by key: frost_lantern fails first, magma_core still reloads.
	failing := item.New(key.MustNew("arcanum", "frost_lantern"), "Frost Lantern",
		item.NewIntSetting("radius", 8, 1, 16))
	later := item.New(key.MustNew("arcanum", "magma_core"), "Magma Core",
		item.NewIntSetting("burn-time", 1600, 0, 86400))
	require.NoError(t, reg.RegisterItem(failing))
	require.NoError(t, reg.RegisterItem(later))

	m, dir := newTestManager(t, reg)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ItemsConfigFile), []byte(`
"arcanum:frost_lantern":
  radius: 99
"arcanum:magma_core":
  burn-time: 800
`), 0o600))

	require.False(t, m.Reload())

	radius, _ := failing.Setting("radius")
	require.Equal(t, 8, radius.(*item.IntSetting).Value(), "out-of-range value leaves the current one")

	burnTime, _ := later.Setting("burn-time")
	require.Equal(t, 800, burnTime.(*item.IntSetting).Value())
}

type recordingUpdater struct {
	updated []string
	fail    map[string]error
}

func (u *recordingUpdater) Update(it *item.Item, _ bool) error {
	u.updated = append(u.updated, it.Key().String())
	return u.fail[it.Key().String()]
}

func TestReload_PermissionFailureContinues(t *testing.T) {
	reg := registry.NewInMemory()
	first := item.New(key.MustNew("arcanum", "ender_sieve"), "Ender Sieve")
	second := item.New(key.MustNew("arcanum", "guide_tome"), "Guide Tome")
	require.NoError(t, reg.RegisterItem(first))
	require.NoError(t, reg.RegisterItem(second))

	m, _ := newTestManager(t, reg)

	updater := &recordingUpdater{fail: map[string]error{
		"arcanum:ender_sieve": errors.New("boom"),
	}}
	m.SetPermissions(updater)

	require.False(t, m.Reload())
	require.Equal(t, []string{"arcanum:ender_sieve", "arcanum:guide_tome"}, updater.updated)
}

func TestReload_PublishesReport(t *testing.T) {
	m, _ := newTestManager(t, registry.NewInMemory())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := m.Events().Subscribe(ctx)

	require.True(t, m.Reload())

	var finished *ReloadReport
	deadline := time.After(time.Second)
	for finished == nil {
		select {
		case ev := <-events:
			if ev.Type == pubsub.ReloadFinishedEvent {
				report := ev.Payload
				finished = &report
			}
		case <-deadline:
			t.Fatal("no reload-finished event received")
		}
	}

	require.True(t, finished.Success)
	require.False(t, finished.DocumentFailure)
	require.Zero(t, finished.ResearchFailures)
}

func TestSetters_OverrideCachedFlags(t *testing.T) {
	m, _ := newTestManager(t, registry.NewInMemory())

	m.SetBackwardsCompatible(true)
	require.True(t, m.BackwardsCompatible())

	m.SetResearchingEnabled(false)
	require.False(t, m.ResearchingEnabled())

	m.SetTalismanMessageInActionbar(false)
	require.False(t, m.TalismanMessageInActionbar())

	// A reload re-derives the flags from the documents.
	require.True(t, m.Reload())
	require.False(t, m.BackwardsCompatible())
	require.True(t, m.ResearchingEnabled())
	require.True(t, m.TalismanMessageInActionbar())
}

func TestSaveAll_PersistsRegisteredDefaults(t *testing.T) {
	reg := registry.NewInMemory()
	it := item.New(key.MustNew("arcanum", "talisman_of_echoes"), "Talisman of Echoes",
		item.NewStringSetting("message", "You hear a faint echo."))
	require.NoError(t, reg.RegisterItem(it))

	m, dir := newTestManager(t, reg)
	require.True(t, m.Reload())
	require.NoError(t, m.SaveAll())

	reread := NewDocument("items", filepath.Join(dir, ItemsConfigFile))
	require.NoError(t, reread.Load())
	require.True(t, reread.GetBool("arcanum:talisman_of_echoes.enabled"))
	require.Equal(t, "You hear a faint echo.",
		reread.GetString("arcanum:talisman_of_echoes.message"))
}
