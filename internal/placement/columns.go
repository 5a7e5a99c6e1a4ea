package placement

import (
	"regexp"
	"sort"
	"strconv"
)

// FinalCode is the header of the final race column.
const FinalCode = "FNL"

var raceHeader = regexp.MustCompile(`^[FR](\d+)$`)

// RaceColumn is a header recognised as a race.
type RaceColumn struct {
	Column int // index in the header
	Code   string
	Index  int // race number, 0 for the final
	Final  bool
}

// RaceColumns finds the race columns of a results header: "R1", "F2" and
// so on ordered by number, then the final if present.
func RaceColumns(header []string) []RaceColumn {
	var races []RaceColumn
	final := -1
	for i, h := range header {
		if h == FinalCode && final < 0 {
			final = i
			continue
		}
		m := raceHeader.FindStringSubmatch(h)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		races = append(races, RaceColumn{Column: i, Code: h, Index: n})
	}
	sort.SliceStable(races, func(i, j int) bool { return races[i].Index < races[j].Index })
	if final >= 0 {
		races = append(races, RaceColumn{Column: final, Code: FinalCode, Final: true})
	}
	return races
}
