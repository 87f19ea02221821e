package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// maxLevenshteinDistance bounds "did you mean?" suggestions.
const maxLevenshteinDistance = 3

// knownKeys lists the valid keys of each section.
var knownKeys = map[string][]string{
	"auth":      {"client_secrets_file", "token_file"},
	"drive":     {"root_id", "search_shared_roots", "strict_names", "use_trash"},
	"transfers": {"chunk_size", "parallel_downloads"},
	"logging":   {"log_level", "log_format"},
	"network":   {"connect_timeout", "data_timeout", "user_agent"},
}

// knownSections is sorted so ties in closestMatch resolve the same way
// every run.
var knownSections = func() []string {
	s := make([]string, 0, len(knownKeys))
	for k := range knownKeys {
		s = append(s, k)
	}

	slices.Sort(s)

	return s
}()

// checkUnknownKeys turns every undecoded TOML key into an error, with a
// suggestion when a known key is close.
func checkUnknownKeys(md *toml.MetaData) error {
	var errs []error

	// An unknown table is listed once for itself and once per key inside it.
	seen := make(map[string]bool)

	for _, key := range md.Undecoded() {
		if _, known := knownKeys[key[0]]; !known {
			if seen[key[0]] {
				continue
			}

			seen[key[0]] = true
		}

		errs = append(errs, unknownKeyError(key))
	}

	return errors.Join(errs...)
}

func unknownKeyError(key toml.Key) error {
	section := key[0]

	keys, ok := knownKeys[section]
	if !ok {
		if len(key) == 1 {
			// A bare key outside any table: suggest the section it belongs to.
			if s := sectionOf(section); s != "" {
				return fmt.Errorf("unknown config key %q: did you mean [%s] %s?", section, s, section)
			}
		}

		return suggest("unknown config section", section, knownSections)
	}

	if len(key) < 2 {
		return fmt.Errorf("config section [%s] must be a table", section)
	}

	return suggest(fmt.Sprintf("unknown config key in [%s]", section), key[1], keys)
}

func suggest(msg, name string, known []string) error {
	if s := closestMatch(name, known); s != "" {
		return fmt.Errorf("%s %q: did you mean %q?", msg, name, s)
	}

	return fmt.Errorf("%s %q", msg, name)
}

// sectionOf returns the section that defines key, or "".
func sectionOf(key string) string {
	for _, s := range knownSections {
		if slices.Contains(knownKeys[s], key) {
			return s
		}
	}

	return ""
}

// closestMatch finds the closest known key by Levenshtein distance.
// Returns "" if nothing is within maxLevenshteinDistance.
func closestMatch(unknown string, known []string) string {
	best := ""
	bestDist := maxLevenshteinDistance + 1

	for _, k := range known {
		if d := levenshtein(strings.ToLower(unknown), k); d < bestDist {
			bestDist = d
			best = k
		}
	}

	return best
}

// levenshtein computes the edit distance between two strings.
func levenshtein(a, b string) int {
	if a == "" {
		return len(b)
	}

	if b == "" {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := range len(a) {
		curr[0] = i + 1

		for j := range len(b) {
			cost := 1
			if a[i] == b[j] {
				cost = 0
			}

			curr[j+1] = min(curr[j]+1, prev[j+1]+1, prev[j]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}
