// Package roster resolves competitor identities: explicit IDs from roster
// files, an optional authoritative name-to-ID directory, and the canonical
// name-derived ID. It also recognises IDs produced by the retired
// club-salted scheme and maps them to canonical ones.
package roster

import (
	"sort"

	"github.com/albapepper/regatta-data/internal/normalize"
)

// DirectoryConflict is a normalised name mapped to more than one ID.
type DirectoryConflict struct {
	Name string
	IDs  []string
}

// Directory is an authoritative name-to-ID mapping. Names are compared in
// their accent-insensitive form.
type Directory struct {
	ids map[string]map[string]struct{}
}

// NewDirectory returns an empty directory.
func NewDirectory() *Directory {
	return &Directory{ids: make(map[string]map[string]struct{})}
}

// Add records one (name, ID) pair. Empty names or IDs are ignored. IDs are
// canonicalised like explicit roster IDs.
func (d *Directory) Add(fullName, id string) {
	key := normalize.Name(fullName)
	id = CleanID(id)
	if key == "" || id == "" {
		return
	}
	if d.ids[key] == nil {
		d.ids[key] = make(map[string]struct{})
	}
	d.ids[key][id] = struct{}{}
}

// Lookup returns the ID recorded for a name. When a name carries several
// IDs the lowest one wins; Conflicts lists those names.
func (d *Directory) Lookup(fullName string) (string, bool) {
	if d == nil {
		return "", false
	}
	ids := d.ids[normalize.Name(fullName)]
	if len(ids) == 0 {
		return "", false
	}
	return sortedIDs(ids)[0], true
}

// Len returns the number of distinct names.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.ids)
}

// Conflicts lists names with more than one ID, sorted by name.
func (d *Directory) Conflicts() []DirectoryConflict {
	if d == nil {
		return nil
	}
	var out []DirectoryConflict
	for name, ids := range d.ids {
		if len(ids) > 1 {
			out = append(out, DirectoryConflict{Name: name, IDs: sortedIDs(ids)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func sortedIDs(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
