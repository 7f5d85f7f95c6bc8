package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrParseFailed is returned when no candidate decodes, even after repair.
var ErrParseFailed = errors.New("failed to parse response")

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// Parse decodes a collaborator's JSON payload into T. Payloads sometimes
// arrive inside a markdown code fence or with trailing commas and single
// quotes, so the raw text is tried first, then the first fenced block, then
// a repaired copy of whichever of the two was tried last.
func Parse[T any](content string) (T, error) {
	var out T
	candidate := strings.TrimSpace(content)

	if json.Unmarshal([]byte(candidate), &out) == nil {
		return out, nil
	}

	if m := fencedBlock.FindStringSubmatch(candidate); m != nil {
		candidate = strings.TrimSpace(m[1])
		if json.Unmarshal([]byte(candidate), &out) == nil {
			return out, nil
		}
	}

	if repaired, err := jsonrepair.JSONRepair(candidate); err == nil {
		if json.Unmarshal([]byte(repaired), &out) == nil {
			return out, nil
		}
	}

	return out, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
