package club

import (
	"errors"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/albapepper/regatta-data/internal/normalize"
)

// DefaultGroupsPath is the default location of the club grouping file.
const DefaultGroupsPath = ".regatta-clubs.yaml"

// GroupConfig is the club grouping authority: real-world clubs and every
// abbreviation they have raced under.
type GroupConfig struct {
	Groups []GroupEntry `yaml:"groups"`
}

// GroupEntry is one real-world club.
type GroupEntry struct {
	Abbreviation string   `yaml:"abbreviation"`
	Name         string   `yaml:"name"`
	Aliases      []string `yaml:"aliases"`
}

// LoadGroupConfig reads the grouping file at path.
//
// Grouping is optional enrichment, so a missing file yields an empty config,
// and an unreadable or invalid file is logged and treated as empty.
func LoadGroupConfig(path string) (*GroupConfig, error) {
	cfg := &GroupConfig{}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Debug("Club groups file not found, continuing without groups", slog.String("path", path))
			return cfg, nil
		}
		slog.Warn("Failed to read club groups file, continuing without groups",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return cfg, nil
	}

	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		slog.Warn("Failed to parse club groups file, continuing without groups",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return &GroupConfig{}, nil
	}

	return cfg, nil
}

// Group is a resolved grouping entry.
type Group struct {
	ID           string
	Abbreviation string
	Name         string
}

// Groups maps abbreviation keys to club groups. Immutable after NewGroups.
// A nil *Groups is valid and matches nothing.
type Groups struct {
	byKey map[string]Group
	count int
}

// NewGroups indexes a config. Entries without an abbreviation are skipped,
// and a key claimed by two groups stays with the first one.
func NewGroups(cfg *GroupConfig) *Groups {
	g := &Groups{byKey: make(map[string]Group)}
	if cfg == nil {
		return g
	}

	for _, e := range cfg.Groups {
		key := normalize.Key(e.Abbreviation)
		if key == "" {
			slog.Warn("Skipping club group without abbreviation", slog.String("name", e.Name))
			continue
		}
		grp := Group{
			ID:           GroupID(key),
			Abbreviation: normalize.Display(e.Abbreviation),
			Name:         normalize.Display(e.Name),
		}
		g.count++
		for _, alias := range append([]string{e.Abbreviation}, e.Aliases...) {
			k := normalize.Key(alias)
			if k == "" {
				continue
			}
			if prev, ok := g.byKey[k]; ok && prev.ID != grp.ID {
				slog.Warn("Club abbreviation claimed by two groups, keeping first",
					slog.String("abbreviation", k),
					slog.String("kept", prev.Abbreviation),
					slog.String("ignored", grp.Abbreviation))
				continue
			}
			g.byKey[k] = grp
		}
	}
	return g
}

// Lookup returns the group an abbreviation belongs to.
func (g *Groups) Lookup(abbreviation string) (Group, bool) {
	if g == nil {
		return Group{}, false
	}
	grp, ok := g.byKey[normalize.Key(abbreviation)]
	return grp, ok
}

// Len returns the number of configured groups.
func (g *Groups) Len() int {
	if g == nil {
		return 0
	}
	return g.count
}

func (g *Groups) groupID(key string) string {
	grp, ok := g.Lookup(key)
	if !ok {
		return ""
	}
	return grp.ID
}
