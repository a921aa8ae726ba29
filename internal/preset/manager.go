// Package preset resolves named lists of participant specs.
package preset

import (
	"fmt"
	"sort"
	"strings"

	"imitgame/internal/config"
)

const FakeHumanModel = "openai/gpt-5.1-chat"

// Builtin presets. Configured presets with the same name replace these.
var builtin = map[string][]string{
	"cheap": {
		"minimax/minimax-m2.1",
		"google/gemini-3-flash-preview",
		"anthropic/claude-haiku-4.5",
	},
	"smart": {
		"google/gemini-3-flash-preview",
		"anthropic/claude-opus-4.5",
		"gemini-prefill",
		"human",
	},
}

type Definition struct {
	Name  string
	Specs []string
}

// AI returns the specs without the human entry.
func (d Definition) AI() []string {
	out := make([]string, 0, len(d.Specs))
	for _, s := range d.Specs {
		if s != "human" {
			out = append(out, s)
		}
	}
	return out
}

// HasHuman reports whether the preset seats a real human.
func (d Definition) HasHuman() bool {
	return len(d.AI()) != len(d.Specs)
}

type Manager struct {
	presets       map[string]Definition
	defaultPreset string
}

func NewManager(cfg config.Config) (*Manager, error) {
	presets := make(map[string]Definition, len(builtin)+len(cfg.Presets))
	add := func(name string, specs []string) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return
		}
		presets[key] = Definition{Name: key, Specs: append([]string(nil), specs...)}
	}
	for name, specs := range builtin {
		add(name, specs)
	}
	for name, specs := range cfg.Presets {
		add(name, specs)
	}
	def := strings.ToLower(strings.TrimSpace(cfg.DefaultPreset))
	if def == "" {
		def = "cheap"
	}
	if _, ok := presets[def]; !ok {
		return nil, fmt.Errorf("default preset %q not found", cfg.DefaultPreset)
	}
	return &Manager{presets: presets, defaultPreset: def}, nil
}

func (m *Manager) Default() Definition {
	return m.presets[m.defaultPreset]
}

func (m *Manager) List() []string {
	out := make([]string, 0, len(m.presets))
	for name := range m.presets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the named preset, or the default for an empty name.
func (m *Manager) Resolve(name string) (Definition, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return m.Default(), nil
	}
	p, ok := m.presets[name]
	if !ok {
		return Definition{}, fmt.Errorf("preset %q not found (available: %s)", name, strings.Join(m.List(), ", "))
	}
	return p, nil
}
