package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/emberhollow/arcanum/internal/item"
	"github.com/emberhollow/arcanum/internal/log"
	"github.com/emberhollow/arcanum/internal/pubsub"
	"github.com/emberhollow/arcanum/internal/registry"
	"github.com/emberhollow/arcanum/internal/research"
)

// Config keys for the cached flags.
const (
	keyBackwardsCompatibility = "options.backwards-compatibility"
	keyEnableResearching      = "enable-researching" // researches document
	keyFreeInCreativeMode     = "researches.free-in-creative-mode"
	keyEnableFireworks        = "researches.enable-fireworks"
	keyLogDuplicateBlocks     = "options.log-duplicate-block-entries"
	keyShowVanillaRecipes     = "guide.show-vanilla-recipes"
	keyGuideOnFirstJoin       = "guide.receive-on-first-join"
	keyAutoUpdate             = "options.auto-update"
	keyTalismanActionbar      = "talismans.use-actionbar"
	keyDropExcessGiveItems    = "options.drop-excess-give-items"
)

// PermissionUpdater refreshes an item's permission node from the items
// document. *permission.Service satisfies it.
type PermissionUpdater interface {
	Update(it *item.Item, warn bool) error
}

// ReloadReport summarizes one reload pass. It is published on the
// manager's event broker after every reload.
type ReloadReport struct {
	Success            bool
	DocumentFailure    bool
	ResearchFailures   int
	SettingFailures    int
	PermissionFailures int
	Duration           time.Duration
}

// Options configures a Manager.
type Options struct {
	// Dir is the data directory holding config.yml, items.yml and
	// researches.yml. Missing files are created from their default
	// templates.
	Dir string

	// Registry supplies the items and researches refreshed on reload.
	Registry registry.Registry

	// Tracer wraps each reload in a span. Optional; defaults to no-op.
	Tracer trace.Tracer
}

// Manager holds the three config documents and caches the boolean
// feature flags derived from them. Reload re-reads the documents and
// re-applies derived state (research costs, item settings, permission
// nodes) across the registry, best-effort.
type Manager struct {
	pluginConfig     *Document
	itemsConfig      *Document
	researchesConfig *Document

	registry registry.Registry
	perms    PermissionUpdater
	tracer   trace.Tracer
	events   *pubsub.Broker[ReloadReport]

	mu    sync.RWMutex
	flags flagCache
}

// flagCache holds the booleans we cache instead of re-parsing every time.
type flagCache struct {
	backwardsCompatible    bool
	researchingEnabled     bool
	freeCreativeResearch   bool
	researchFireworks      bool
	duplicateBlockLogging  bool
	vanillaRecipesShown    bool
	guideGivenOnFirstJoin  bool
	autoUpdatesEnabled     bool
	talismanActionbar      bool
	excessGiveItemsDropped bool
}

// NewManager creates a Manager over the config files in opts.Dir,
// writing default templates for any missing file and performing an
// initial document load. Flags are populated; registry propagation
// happens on the first Reload.
func NewManager(opts Options) (*Manager, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("config")
	}

	m := &Manager{
		pluginConfig:     NewDocument("config", filepath.Join(opts.Dir, PluginConfigFile)),
		itemsConfig:      NewDocument("items", filepath.Join(opts.Dir, ItemsConfigFile)),
		researchesConfig: NewDocument("researches", filepath.Join(opts.Dir, ResearchesConfigFile)),
		registry:         opts.Registry,
		tracer:           tracer,
		events:           pubsub.NewBroker[ReloadReport](),
	}

	templates := map[*Document]string{
		m.pluginConfig:     DefaultPluginConfigTemplate(),
		m.itemsConfig:      DefaultItemsConfigTemplate(),
		m.researchesConfig: DefaultResearchesConfigTemplate(),
	}
	for doc, template := range templates {
		if _, err := os.Stat(doc.Path()); err != nil {
			if writeErr := WriteDefaultConfig(doc.Path(), template); writeErr != nil {
				return nil, writeErr
			}
		}
		if err := doc.Load(); err != nil {
			return nil, err
		}
	}

	m.researchesConfig.SetDefault(keyEnableResearching, true)
	m.refreshFlags()
	return m, nil
}

// SetPermissions attaches the permission service consulted per item on
// reload. Without one, the permission stage is skipped.
func (m *Manager) SetPermissions(p PermissionUpdater) {
	m.mu.Lock()
	m.perms = p
	m.mu.Unlock()
}

// SetTracer replaces the reload tracer. The tracing provider reads its
// own config from the plugin document, so it is wired in after the
// manager exists.
func (m *Manager) SetTracer(tracer trace.Tracer) {
	if tracer == nil {
		return
	}
	m.mu.Lock()
	m.tracer = tracer
	m.mu.Unlock()
}

// PluginConfig returns the config.yml document.
func (m *Manager) PluginConfig() *Document { return m.pluginConfig }

// ItemsConfig returns the items.yml document.
func (m *Manager) ItemsConfig() *Document { return m.itemsConfig }

// ResearchesConfig returns the researches.yml document.
func (m *Manager) ResearchesConfig() *Document { return m.researchesConfig }

// Events returns the broker publishing a ReloadReport per reload.
func (m *Manager) Events() pubsub.Subscriber[ReloadReport] { return m.events }

// Close releases the manager's event broker.
func (m *Manager) Close() { m.events.Close() }

// Reload re-reads all config values into the cache and re-applies
// derived state across the registry.
//
// Note that reloading is not guaranteed to be complete: every failure is
// logged and flips the return value to false, but processing continues
// for the remaining researches and items. There is no rollback.
func (m *Manager) Reload() bool {
	return m.ReloadContext(context.Background())
}

// ReloadContext is Reload with a caller-provided context for tracing.
func (m *Manager) ReloadContext(ctx context.Context) bool {
	start := time.Now()
	m.mu.RLock()
	tracer := m.tracer
	m.mu.RUnlock()
	_, span := tracer.Start(ctx, "config.reload")
	defer span.End()

	m.events.Publish(pubsub.ReloadStartedEvent, ReloadReport{})

	report := ReloadReport{}
	ok := true

	if err := m.reloadDocuments(); err != nil {
		log.ErrorErr(log.CatConfig, "reloading config documents failed", err)
		span.RecordError(err)
		ok = false
		report.DocumentFailure = true
	} else {
		m.researchesConfig.SetDefault(keyEnableResearching, true)
		m.refreshFlags()
	}

	// Research costs are refreshed even when the documents failed to
	// load, from whatever the documents last held.
	for _, res := range m.registry.AllResearches() {
		if err := m.reloadResearchCost(res); err != nil {
			log.ErrorErr(log.CatResearch, "updating research cost failed", err,
				"research", res.String())
			ok = false
			report.ResearchFailures++
		}
	}

	m.mu.RLock()
	perms := m.perms
	m.mu.RUnlock()

	for _, it := range m.registry.AllItems() {
		// Reload item settings
		if err := m.reloadItemState(it); err != nil {
			it.Error("updating the settings for this item failed", err)
			ok = false
			report.SettingFailures++
		}

		// Reload permissions
		if perms != nil {
			if err := perms.Update(it, false); err != nil {
				it.Error("updating the permission node for this item failed", err)
				ok = false
				report.PermissionFailures++
			}
		}
	}

	report.Success = ok
	report.Duration = time.Since(start)

	items, researches := m.registry.Counts()
	span.SetAttributes(
		attribute.Bool("reload.success", ok),
		attribute.Int("reload.items", items),
		attribute.Int("reload.researches", researches),
		attribute.Int("reload.research_failures", report.ResearchFailures),
		attribute.Int("reload.setting_failures", report.SettingFailures),
		attribute.Int("reload.permission_failures", report.PermissionFailures),
	)
	if !ok {
		span.SetStatus(codes.Error, "reload completed with failures")
	}

	m.events.Publish(pubsub.ReloadFinishedEvent, report)
	log.Info(log.CatConfig, "reload finished",
		"success", ok,
		"items", items,
		"researches", researches,
		"duration", report.Duration)

	return ok
}

// SaveAll persists all three config documents.
func (m *Manager) SaveAll() error {
	return errors.Join(
		m.pluginConfig.Save(),
		m.itemsConfig.Save(),
		m.researchesConfig.Save(),
	)
}

func (m *Manager) reloadDocuments() error {
	if err := m.pluginConfig.Load(); err != nil {
		return err
	}
	if err := m.itemsConfig.Load(); err != nil {
		return err
	}
	return m.researchesConfig.Load()
}

func (m *Manager) refreshFlags() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flags = flagCache{
		backwardsCompatible:    m.pluginConfig.GetBool(keyBackwardsCompatibility),
		researchingEnabled:     m.researchesConfig.GetBool(keyEnableResearching),
		freeCreativeResearch:   m.pluginConfig.GetBool(keyFreeInCreativeMode),
		researchFireworks:      m.pluginConfig.GetBool(keyEnableFireworks),
		duplicateBlockLogging:  m.pluginConfig.GetBool(keyLogDuplicateBlocks),
		vanillaRecipesShown:    m.pluginConfig.GetBool(keyShowVanillaRecipes),
		guideGivenOnFirstJoin:  m.pluginConfig.GetBool(keyGuideOnFirstJoin),
		autoUpdatesEnabled:     m.pluginConfig.GetBool(keyAutoUpdate),
		talismanActionbar:      m.pluginConfig.GetBool(keyTalismanActionbar),
		excessGiveItemsDropped: m.pluginConfig.GetBool(keyDropExcessGiveItems),
	}
}

func (m *Manager) reloadResearchCost(res *research.Research) error {
	costPath := res.Key().ConfigPath() + ".cost"
	raw := m.researchesConfig.Get(costPath)
	if raw == nil {
		// No entry in researches.yml: register the current cost as the
		// default so a later save writes it out.
		m.researchesConfig.SetDefault(costPath, res.Cost())
		return nil
	}
	cost, err := asInt(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", costPath, err)
	}
	return res.SetCost(cost)
}

func (m *Manager) reloadItemState(it *item.Item) error {
	enabledPath := it.Key().String() + ".enabled"
	if !m.itemsConfig.IsSet(enabledPath) {
		m.itemsConfig.SetDefault(enabledPath, true)
	}
	it.SetEnabled(m.itemsConfig.GetBool(enabledPath))

	var errs []error
	for _, s := range it.Settings() {
		// Make sure each setting loads; a bad one must not stop the rest.
		if err := s.Load(m.itemsConfig, it.Key()); err != nil {
			errs = append(errs, fmt.Errorf("setting %q: %w", s.Key(), err))
		}
	}
	return errors.Join(errs...)
}

// asInt normalizes the integer types YAML decoding may produce.
func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
		return 0, fmt.Errorf("expected integer, found %v", n)
	default:
		return 0, fmt.Errorf("expected integer, found %T", v)
	}
}

// BackwardsCompatible returns whether backwards-compatibility is
// enabled. It allows Arcanum to recognize item data from older versions
// but comes at a performance cost.
func (m *Manager) BackwardsCompatible() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags.backwardsCompatible
}

// SetBackwardsCompatible updates the cached backwards-compatibility flag.
func (m *Manager) SetBackwardsCompatible(compatible bool) {
	m.mu.Lock()
	m.flags.backwardsCompatible = compatible
	m.mu.Unlock()
}

// ResearchingEnabled returns whether the research system is enabled.
func (m *Manager) ResearchingEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags.researchingEnabled
}

// SetResearchingEnabled updates the cached researching flag.
func (m *Manager) SetResearchingEnabled(enabled bool) {
	m.mu.Lock()
	m.flags.researchingEnabled = enabled
	m.mu.Unlock()
}

// FreeCreativeResearchingEnabled returns whether researches are free for
// players in creative mode.
func (m *Manager) FreeCreativeResearchingEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags.freeCreativeResearch
}

// SetFreeCreativeResearchingEnabled updates the cached flag.
func (m *Manager) SetFreeCreativeResearchingEnabled(enabled bool) {
	m.mu.Lock()
	m.flags.freeCreativeResearch = enabled
	m.mu.Unlock()
}

// ResearchFireworksEnabled returns whether unlocking a research launches
// a firework.
func (m *Manager) ResearchFireworksEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags.researchFireworks
}

// SetResearchFireworksEnabled updates the cached flag.
func (m *Manager) SetResearchFireworksEnabled(enabled bool) {
	m.mu.Lock()
	m.flags.researchFireworks = enabled
	m.mu.Unlock()
}

// DuplicateBlockLoggingEnabled returns whether duplicate block entries
// are logged.
func (m *Manager) DuplicateBlockLoggingEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags.duplicateBlockLogging
}

// SetDuplicateBlockLoggingEnabled updates the cached flag.
func (m *Manager) SetDuplicateBlockLoggingEnabled(enabled bool) {
	m.mu.Lock()
	m.flags.duplicateBlockLogging = enabled
	m.mu.Unlock()
}

// VanillaRecipesShown returns whether the guide shows vanilla recipes.
func (m *Manager) VanillaRecipesShown() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags.vanillaRecipesShown
}

// SetVanillaRecipesShown updates the cached flag.
func (m *Manager) SetVanillaRecipesShown(shown bool) {
	m.mu.Lock()
	m.flags.vanillaRecipesShown = shown
	m.mu.Unlock()
}

// GuideGivenOnFirstJoin returns whether new players receive the guide
// tome on their first join.
func (m *Manager) GuideGivenOnFirstJoin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags.guideGivenOnFirstJoin
}

// SetGuideGivenOnFirstJoin updates the cached flag.
func (m *Manager) SetGuideGivenOnFirstJoin(given bool) {
	m.mu.Lock()
	m.flags.guideGivenOnFirstJoin = given
	m.mu.Unlock()
}

// AutoUpdatesEnabled returns whether the auto-updater is enabled.
func (m *Manager) AutoUpdatesEnabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags.autoUpdatesEnabled
}

// SetAutoUpdatesEnabled updates the cached flag.
func (m *Manager) SetAutoUpdatesEnabled(enabled bool) {
	m.mu.Lock()
	m.flags.autoUpdatesEnabled = enabled
	m.mu.Unlock()
}

// TalismanMessageInActionbar returns whether talisman messages use the
// actionbar instead of chat.
func (m *Manager) TalismanMessageInActionbar() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags.talismanActionbar
}

// SetTalismanMessageInActionbar updates the cached flag.
func (m *Manager) SetTalismanMessageInActionbar(actionbar bool) {
	m.mu.Lock()
	m.flags.talismanActionbar = actionbar
	m.mu.Unlock()
}

// ExcessGiveItemsDropped returns whether excess /arcanum give items are
// dropped instead of voided.
func (m *Manager) ExcessGiveItemsDropped() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags.excessGiveItemsDropped
}

// SetExcessGiveItemsDropped updates the cached flag.
func (m *Manager) SetExcessGiveItemsDropped(dropped bool) {
	m.mu.Lock()
	m.flags.excessGiveItemsDropped = dropped
	m.mu.Unlock()
}
