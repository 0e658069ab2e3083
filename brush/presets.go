package brush

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"slices"
	"strings"
)

//go:embed presets/*.myb
var presetFS embed.FS

const presetExt = ".myb"

// ErrUnknownPreset is returned by Preset for names that are not built in.
var ErrUnknownPreset = errors.New("brush: unknown preset")

// Presets returns the names of the built-in presets, sorted.
func Presets() []string {
	entries, err := presetFS.ReadDir("presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), presetExt); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Preset returns a fresh copy of a built-in preset. Its parent name is the
// preset name.
func Preset(name string) (*Settings, error) {
	data, err := presetFS.ReadFile(path.Join("presets", name+presetExt))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	s, err := ParseSettings(data)
	if err != nil {
		return nil, fmt.Errorf("brush: preset %s: %w", name, err)
	}
	if s.Parent == "" {
		s.Parent = name
	}
	return s, nil
}

// LoadSettings returns the built-in preset called nameOrPath, or else reads
// a brush file from that path.
func LoadSettings(nameOrPath string) (*Settings, error) {
	if !strings.ContainsAny(nameOrPath, `/\.`) {
		if s, err := Preset(nameOrPath); err == nil {
			return s, nil
		}
	}
	data, err := os.ReadFile(nameOrPath)
	if err != nil {
		return nil, fmt.Errorf("brush: load %s: %w", nameOrPath, err)
	}
	return ParseSettings(data)
}
