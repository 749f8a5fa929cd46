package item

import (
	"fmt"
	"sync"

	"github.com/emberhollow/arcanum/internal/key"
)

// Source provides typed access to the items config document.
// *config.Document satisfies it.
type Source interface {
	Get(path string) any
	IsSet(path string) bool
	SetDefault(path string, value any)
}

// Setting is a per-item configurable value with a load/validate contract.
// Load reads the value stored under "<item-key>.<setting-key>" in the
// items document. A missing value registers the default instead; a value
// of the wrong type or failing validation returns an error and leaves the
// current value untouched.
type Setting interface {
	// Key is the setting's path segment below the owning item.
	Key() string

	// Load refreshes the setting's value for the given owner from src.
	Load(src Source, owner key.NamespacedKey) error
}

func settingPath(owner key.NamespacedKey, settingKey string) string {
	return owner.String() + "." + settingKey
}

// BoolSetting is a boolean item setting.
type BoolSetting struct {
	mu    sync.RWMutex
	key   string
	def   bool
	value bool
}

// NewBoolSetting creates a boolean setting with the given default.
func NewBoolSetting(settingKey string, def bool) *BoolSetting {
	return &BoolSetting{key: settingKey, def: def, value: def}
}

func (s *BoolSetting) Key() string { return s.key }

// Value returns the current value.
func (s *BoolSetting) Value() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *BoolSetting) Load(src Source, owner key.NamespacedKey) error {
	path := settingPath(owner, s.key)
	if !src.IsSet(path) {
		src.SetDefault(path, s.def)
		s.set(s.def)
		return nil
	}
	v, ok := src.Get(path).(bool)
	if !ok {
		return fmt.Errorf("%s: expected bool, found %T", path, src.Get(path))
	}
	s.set(v)
	return nil
}

func (s *BoolSetting) set(v bool) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// IntSetting is an integer item setting with an inclusive valid range.
type IntSetting struct {
	mu       sync.RWMutex
	key      string
	def      int
	min, max int
	value    int
}

// NewIntSetting creates an integer setting constrained to [min, max].
// Panics if the default lies outside the range.
func NewIntSetting(settingKey string, def, min, max int) *IntSetting {
	if def < min || def > max {
		panic(fmt.Sprintf("setting %q: default %d outside range [%d, %d]", settingKey, def, min, max))
	}
	return &IntSetting{key: settingKey, def: def, min: min, max: max, value: def}
}

func (s *IntSetting) Key() string { return s.key }

// Value returns the current value.
func (s *IntSetting) Value() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *IntSetting) Load(src Source, owner key.NamespacedKey) error {
	path := settingPath(owner, s.key)
	if !src.IsSet(path) {
		src.SetDefault(path, s.def)
		s.set(s.def)
		return nil
	}
	v, err := asInt(src.Get(path))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if v < s.min || v > s.max {
		return fmt.Errorf("%s: value %d outside range [%d, %d]", path, v, s.min, s.max)
	}
	s.set(v)
	return nil
}

func (s *IntSetting) set(v int) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
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

// StringSetting is a string item setting.
type StringSetting struct {
	mu    sync.RWMutex
	key   string
	def   string
	value string
}

// NewStringSetting creates a string setting with the given default.
func NewStringSetting(settingKey, def string) *StringSetting {
	return &StringSetting{key: settingKey, def: def, value: def}
}

func (s *StringSetting) Key() string { return s.key }

// Value returns the current value.
func (s *StringSetting) Value() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

func (s *StringSetting) Load(src Source, owner key.NamespacedKey) error {
	path := settingPath(owner, s.key)
	if !src.IsSet(path) {
		src.SetDefault(path, s.def)
		s.set(s.def)
		return nil
	}
	v, ok := src.Get(path).(string)
	if !ok {
		return fmt.Errorf("%s: expected string, found %T", path, src.Get(path))
	}
	s.set(v)
	return nil
}

func (s *StringSetting) set(v string) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

// StringListSetting is a list-of-strings item setting.
type StringListSetting struct {
	mu    sync.RWMutex
	key   string
	def   []string
	value []string
}

// NewStringListSetting creates a string-list setting with the given default.
func NewStringListSetting(settingKey string, def []string) *StringListSetting {
	return &StringListSetting{key: settingKey, def: def, value: def}
}

func (s *StringListSetting) Key() string { return s.key }

// Value returns a copy of the current value.
func (s *StringListSetting) Value() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.value))
	copy(out, s.value)
	return out
}

func (s *StringListSetting) Load(src Source, owner key.NamespacedKey) error {
	path := settingPath(owner, s.key)
	if !src.IsSet(path) {
		src.SetDefault(path, s.def)
		s.set(s.def)
		return nil
	}
	raw, ok := src.Get(path).([]any)
	if !ok {
		// viper may hand back []string directly when the value was set in-process
		if direct, isStrings := src.Get(path).([]string); isStrings {
			s.set(direct)
			return nil
		}
		return fmt.Errorf("%s: expected string list, found %T", path, src.Get(path))
	}
	values := make([]string, 0, len(raw))
	for i, entry := range raw {
		str, isString := entry.(string)
		if !isString {
			return fmt.Errorf("%s[%d]: expected string, found %T", path, i, entry)
		}
		values = append(values, str)
	}
	s.set(values)
	return nil
}

func (s *StringListSetting) set(v []string) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}
