// Package catalog registers the builtin items and researches.
package catalog

import (
	"fmt"

	"github.com/emberhollow/arcanum/internal/item"
	"github.com/emberhollow/arcanum/internal/key"
	"github.com/emberhollow/arcanum/internal/registry"
	"github.com/emberhollow/arcanum/internal/research"
)

// Namespace is the namespace all builtin content registers under.
const Namespace = "arcanum"

func builtinItems() []*item.Item {
	return []*item.Item{
		item.New(key.MustNew(Namespace, "magma_core"), "Magma Core",
			item.NewIntSetting("burn-time", 1600, 0, 86400)),
		item.New(key.MustNew(Namespace, "frost_lantern"), "Frost Lantern",
			item.NewIntSetting("radius", 8, 1, 16)),
		item.New(key.MustNew(Namespace, "warded_chestplate"), "Warded Chestplate",
			item.NewBoolSetting("reflect-damage", false)),
		item.New(key.MustNew(Namespace, "talisman_of_echoes"), "Talisman of Echoes",
			item.NewStringSetting("message", "You hear a faint echo.")),
		item.New(key.MustNew(Namespace, "ender_sieve"), "Ender Sieve",
			item.NewStringListSetting("whitelist", []string{"minecraft:gravel", "minecraft:soul_sand"})),
		item.New(key.MustNew(Namespace, "guide_tome"), "Guide Tome"),
	}
}

func builtinResearches() []*research.Research {
	return []*research.Research{
		research.MustNew(key.MustNew(Namespace, "elemental_basics"), "Elemental Basics", 5),
		research.MustNew(key.MustNew(Namespace, "infused_alloys"), "Infused Alloys", 12),
		research.MustNew(key.MustNew(Namespace, "void_theory"), "Void Theory", 30),
	}
}

// Register adds every builtin item and research to the registry.
func Register(reg registry.Registry) error {
	for _, it := range builtinItems() {
		if err := reg.RegisterItem(it); err != nil {
			return fmt.Errorf("registering item: %w", err)
		}
	}
	for _, res := range builtinResearches() {
		if err := reg.RegisterResearch(res); err != nil {
			return fmt.Errorf("registering research: %w", err)
		}
	}
	return nil
}
