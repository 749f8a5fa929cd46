package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emberhollow/arcanum/internal/log"
)

// File names of the three config documents inside the data directory.
const (
	PluginConfigFile     = "config.yml"
	ItemsConfigFile      = "items.yml"
	ResearchesConfigFile = "researches.yml"
)

// DefaultPluginConfigTemplate returns the default config.yml as a YAML
// string with comments.
func DefaultPluginConfigTemplate() string {
	return `# Arcanum Configuration

options:
  # Recognize item data written by older plugin versions.
  # Comes at a noticeable performance cost.
  backwards-compatibility: false

  # Log when two block entries claim the same position.
  log-duplicate-block-entries: false

  # Check for and download plugin updates automatically.
  auto-update: true

  # Drop items that don't fit the inventory on /arcanum give
  # instead of voiding them.
  drop-excess-give-items: false

researches:
  # Researches cost nothing for players in creative mode.
  free-in-creative-mode: true

  # Launch a firework when a research is unlocked.
  enable-fireworks: true

guide:
  # Show vanilla recipes alongside Arcanum recipes in the guide.
  show-vanilla-recipes: true

  # Give new players the guide tome on their first join.
  receive-on-first-join: true

talismans:
  # Show talisman messages in the actionbar instead of chat.
  use-actionbar: true
`
}

// DefaultItemsConfigTemplate returns the default items.yml as a YAML
// string with comments. Per-item settings and permission nodes are
// registered under each item's "<namespace>:<key>" entry.
func DefaultItemsConfigTemplate() string {
	return `# Arcanum Item Settings
#
# Every registered item gets an entry keyed by its namespaced id.
# Missing entries are filled in with defaults on reload.
#
# "arcanum:magma_core":
#   enabled: true
#   burn-time: 1600
#   permission: ""

"arcanum:magma_core":
  enabled: true

"arcanum:frost_lantern":
  enabled: true
`
}

// DefaultResearchesConfigTemplate returns the default researches.yml as
// a YAML string with comments.
func DefaultResearchesConfigTemplate() string {
	return `# Arcanum Researches

# Master switch for the whole research system.
enable-researching: true

# Unlock costs (in levels), keyed by "<namespace>.<key>.cost".
arcanum:
  elemental_basics:
    cost: 5
  infused_alloys:
    cost: 12
  void_theory:
    cost: 30
`
}

// WriteDefaultConfig creates a config file at the given path with the
// given template. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath, template string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(template), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
