package config

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kib = 1 << 10
	mib = 1 << 20
	gib = 1 << 30
)

// sizeSuffixes is ordered so longer suffixes are tried first.
var sizeSuffixes = []struct {
	suffix     string
	multiplier int64
}{
	{"GIB", gib},
	{"MIB", mib},
	{"KIB", kib},
	{"GB", 1_000_000_000},
	{"MB", 1_000_000},
	{"KB", 1_000},
	{"B", 1},
}

// ParseSize converts a size such as "16MiB", "512KB" or "1048576" to bytes.
// IEC (KiB, MiB, GiB) and SI (KB, MB, GB) suffixes are accepted in any
// case; a bare number is bytes.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("invalid size: empty")
	}

	upper := strings.ToUpper(s)
	num, mult := s, int64(1)

	for _, sf := range sizeSuffixes {
		if strings.HasSuffix(upper, sf.suffix) {
			num, mult = strings.TrimSpace(s[:len(s)-len(sf.suffix)]), sf.multiplier
			break
		}
	}

	if mult == 1 {
		if n, err := strconv.ParseInt(num, 10, 64); err == nil {
			if n < 0 {
				return 0, fmt.Errorf("invalid size %q: must be non-negative", s)
			}

			return n, nil
		}
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}

	if f < 0 {
		return 0, fmt.Errorf("invalid size %q: must be non-negative", s)
	}

	return int64(f * float64(mult)), nil
}
