package item

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emberhollow/arcanum/internal/key"
)

func TestItem_New(t *testing.T) {
	k := key.MustNew("arcanum", "frost_lantern")
	radius := NewIntSetting("radius", 8, 1, 16)
	it := New(k, "Frost Lantern", radius)

	require.Equal(t, k, it.Key())
	require.Equal(t, "Frost Lantern", it.Name())
	require.True(t, it.Enabled(), "items start enabled")
	require.Len(t, it.Settings(), 1)
}

func TestItem_SetEnabled(t *testing.T) {
	it := New(key.MustNew("arcanum", "frost_lantern"), "Frost Lantern")

	it.SetEnabled(false)
	require.False(t, it.Enabled())

	it.SetEnabled(true)
	require.True(t, it.Enabled())
}

func TestItem_SettingLookup(t *testing.T) {
	radius := NewIntSetting("radius", 8, 1, 16)
	it := New(key.MustNew("arcanum", "frost_lantern"), "Frost Lantern", radius)

	found, ok := it.Setting("radius")
	require.True(t, ok)
	require.Same(t, Setting(radius), found)

	_, ok = it.Setting("missing")
	require.False(t, ok)
}

func TestItem_AddSetting(t *testing.T) {
	it := New(key.MustNew("arcanum", "frost_lantern"), "Frost Lantern")
	it.AddSetting(NewBoolSetting("glows", true))

	require.Len(t, it.Settings(), 1)
	_, ok := it.Setting("glows")
	require.True(t, ok)
}

func TestItem_SettingsReturnsCopy(t *testing.T) {
	it := New(key.MustNew("arcanum", "frost_lantern"), "Frost Lantern",
		NewBoolSetting("glows", true))

	settings := it.Settings()
	settings[0] = nil

	_, ok := it.Setting("glows")
	require.True(t, ok, "mutating the returned slice must not affect the item")
}
