package source

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/albapepper/regatta-data/internal/normalize"
)

// Edition is the league round a results file belongs to, taken from its
// place in the results tree.
type Edition struct {
	League string
	Year   int
	Round  int
	City   string
}

// ResultFile is one discovered results sheet.
type ResultFile struct {
	Path    string
	Edition Edition
}

// Skipped is a tree entry that does not fit the layout.
type Skipped struct {
	Path   string
	Reason string
}

var trailingDigits = regexp.MustCompile(`(\d+)\s*$`)

// Discover walks root laid out as <year>/<league>/<round>/<file> and
// returns every loadable file in name order. Entries that break the layout
// are returned as skipped instead of failing the walk.
func Discover(root string) ([]ResultFile, []Skipped, error) {
	years, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, fmt.Errorf("read results dir: %w", err)
	}

	var files []ResultFile
	var skipped []Skipped
	for _, y := range years {
		if !y.IsDir() {
			continue
		}
		yearPath := filepath.Join(root, y.Name())
		year, err := strconv.Atoi(strings.TrimSpace(y.Name()))
		if err != nil {
			skipped = append(skipped, Skipped{Path: yearPath, Reason: "year folder is not a number"})
			continue
		}

		leagues, err := os.ReadDir(yearPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", yearPath, err)
		}
		for _, l := range leagues {
			if !l.IsDir() {
				continue
			}
			leaguePath := filepath.Join(yearPath, l.Name())
			league := normalize.LeagueFromFolder(l.Name())
			if canon, ok := normalize.League(league); ok {
				league = canon
			}

			rounds, err := os.ReadDir(leaguePath)
			if err != nil {
				return nil, nil, fmt.Errorf("read %s: %w", leaguePath, err)
			}
			for _, r := range rounds {
				if !r.IsDir() {
					continue
				}
				roundPath := filepath.Join(leaguePath, r.Name())
				m := trailingDigits.FindStringSubmatch(r.Name())
				if m == nil {
					skipped = append(skipped, Skipped{Path: roundPath, Reason: "round folder has no number"})
					continue
				}
				round, _ := strconv.Atoi(m[1])

				entries, err := os.ReadDir(roundPath)
				if err != nil {
					return nil, nil, fmt.Errorf("read %s: %w", roundPath, err)
				}
				for _, f := range entries {
					path := filepath.Join(roundPath, f.Name())
					if f.IsDir() || !IsSupported(path) {
						continue
					}
					files = append(files, ResultFile{
						Path: path,
						Edition: Edition{
							League: league,
							Year:   year,
							Round:  round,
							City:   CityFromFile(f.Name()),
						},
					})
				}
			}
		}
	}
	return files, skipped, nil
}

// CityFromFile returns the segment after the first "-" of the file stem:
// "R1-Gdynia.csv" is Gdynia.
func CityFromFile(name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.SplitN(stem, "-", 3)
	if len(parts) < 2 {
		return ""
	}
	return normalize.Display(parts[1])
}
