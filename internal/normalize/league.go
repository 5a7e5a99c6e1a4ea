package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	leagueNumbered = regexp.MustCompile(`(^|\b)(\d+)\s*[.\-]?\s*liga\b`)
	leagueCompact  = regexp.MustCompile(`^(\d+)\s*liga?$`)
)

// League canonicalises a free-text league label to "Ekstraklasa" or
// "<n> Liga". ok is false when the text names neither.
func League(s string) (string, bool) {
	s = strings.TrimSpace(s)
	low := strings.ToLower(s)
	if low == "" || low == "nan" || low == "none" {
		return "", false
	}
	low = Display(strings.NewReplacer("_", " ", "-", " ").Replace(low))

	if strings.Contains(low, "ekstra") {
		return "Ekstraklasa", true
	}
	if m := leagueNumbered.FindStringSubmatch(low); m != nil {
		return numberedLeague(m[2])
	}
	if m := leagueCompact.FindStringSubmatch(strings.ReplaceAll(low, " ", "")); m != nil {
		return numberedLeague(m[1])
	}
	return "", false
}

func numberedLeague(digits string) (string, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%d Liga", n), true
}

// LeagueFromFolder turns a results-tree folder name into a league level.
// A leading digit glued to the name gets a space ("1Liga" -> "1 Liga");
// everything else is only display normalised.
func LeagueFromFolder(name string) string {
	name = Display(name)
	if name == "" {
		return ""
	}
	r := []rune(name)
	if unicode.IsDigit(r[0]) && len(r) > 1 && r[1] != ' ' {
		return Display(string(r[0]) + " " + string(r[1:]))
	}
	return name
}

// LeagueTag is the short label a league carries inside combined regatta
// descriptions such as "Świnoujście (EX) / Szczecin (1L)".
func LeagueTag(league string) string {
	low := strings.ToLower(strings.TrimSpace(league))
	switch {
	case strings.Contains(low, "ekstra"):
		return "EX"
	case strings.Contains(low, "1"):
		return "1L"
	default:
		return "EX"
	}
}

// LeagueFromRegattaText guesses the league from a regatta description cell.
func LeagueFromRegattaText(text string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	switch {
	case t == "":
		return "", false
	case strings.Contains(t, "(ex)") || strings.Contains(t, "ekstra"):
		return "Ekstraklasa", true
	case strings.Contains(t, "(1l)") || strings.Contains(t, "i liga") || (strings.Contains(t, "1") && strings.Contains(t, "liga")):
		return "1 Liga", true
	}
	return "", false
}

var regattaPart = regexp.MustCompile(`^(.+?)\s*\(([^)]+)\)\s*$`)
var regattaHead = regexp.MustCompile(`^(.+?)\s*\(`)

// RegattaForLeague picks the host named for league out of a combined
// description: "Świnoujście (EX) / Szczecin (1L)" with "1 Liga" gives
// "Szczecin". Without a matching tag the first part is returned.
func RegattaForLeague(text, league string) string {
	want := strings.ToLower(LeagueTag(league))
	parts := strings.Split(text, "/")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for _, p := range parts {
		if m := regattaPart.FindStringSubmatch(p); m != nil && strings.ToLower(strings.TrimSpace(m[2])) == want {
			return strings.TrimSpace(m[1])
		}
	}
	if m := regattaHead.FindStringSubmatch(parts[0]); m != nil {
		return strings.TrimSpace(m[1])
	}
	return parts[0]
}
