// Package formatting converts between byte counts and the sizes people
// write in configuration, and decodes loosely formatted JSON returned by
// collaborator services.
package formatting

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// Binary multiples, so "1KB" is 1024 bytes.
var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest unit that keeps the value at or
// above one, rounded to precision decimals. Trailing zeros are dropped.
func FormatBytes(n int64, precision int) string {
	if n < 0 {
		return "-" + FormatBytes(-n, precision)
	}

	v := float64(n)
	exp := 0
	for v >= 1024 && exp < len(sizeUnits)-1 {
		v /= 1024
		exp++
	}

	s := strconv.FormatFloat(v, 'f', max(precision, 0), 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s + " " + sizeUnits[exp]
}

// ParseBytes reads sizes such as "512", "25MB", "1.5 gb", "10M" or "4KiB".
// A bare number is a byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	num := strings.TrimRightFunc(s, unicode.IsLetter)
	unit := normalizeUnit(s[len(num):])
	num = strings.TrimSpace(num)

	if num == "" {
		return 0, fmt.Errorf("byte size %q has no number", s)
	}

	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v < 0 || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid byte size %q", s)
	}

	exp := slices.Index(sizeUnits, unit)
	if exp < 0 {
		return 0, fmt.Errorf("byte size %q has unknown unit %q", s, unit)
	}

	n := v * math.Pow(1024, float64(exp))
	if n >= math.MaxInt64 {
		return 0, fmt.Errorf("byte size %q overflows", s)
	}
	return int64(n), nil
}

// normalizeUnit folds "", "k", "KiB" and "kb" onto the sizeUnits spelling.
func normalizeUnit(u string) string {
	u = strings.ToUpper(u)
	switch {
	case u == "":
		return "B"
	case u == "B":
		return u
	case strings.HasSuffix(u, "IB"):
		return strings.TrimSuffix(u, "IB") + "B"
	case !strings.HasSuffix(u, "B"):
		return u + "B"
	}
	return u
}
