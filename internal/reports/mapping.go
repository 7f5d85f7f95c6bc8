package reports

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/one2ten/stetho-agent/internal/triage"
	"github.com/one2ten/stetho-agent/pkg/query"
	"github.com/one2ten/stetho-agent/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "reports", "r").
	Project("id", "ID").
	Project("risk_level", "RiskLevel").
	Project("risk_score", "RiskScore").
	Project("user_mode", "UserMode").
	Project("immediate_action", "ImmediateAction").
	Project("audio_label", "AudioLabel").
	Project("recording_key", "RecordingKey").
	Project("export_key", "ExportKey").
	Project("content", "Content").
	Project("created_at", "CreatedAt")

const returning = "id, risk_level, risk_score, user_mode, immediate_action, audio_label, recording_key, export_key, content, created_at"

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for report queries.
// Nil fields are ignored. RiskLevels matches any of the listed levels.
// AudioLabel uses case-insensitive contains matching. The score bounds are
// inclusive; Until is exclusive so consecutive windows do not overlap.
type Filters struct {
	RiskLevels      []triage.RiskLevel `json:"risk_levels,omitempty"`
	UserMode        *triage.UserMode   `json:"user_mode,omitempty"`
	ImmediateAction *bool              `json:"immediate_action,omitempty"`
	AudioLabel      *string            `json:"audio_label,omitempty"`
	MinScore        *float64           `json:"min_score,omitempty"`
	MaxScore        *float64           `json:"max_score,omitempty"`
	Since           *time.Time         `json:"since,omitempty"`
	Until           *time.Time         `json:"until,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	levels := make([]any, len(f.RiskLevels))
	for i, l := range f.RiskLevels {
		levels[i] = string(l)
	}

	return b.
		WhereIn("RiskLevel", levels).
		WhereEquals("UserMode", f.UserMode).
		WhereEquals("ImmediateAction", f.ImmediateAction).
		WhereContains("AudioLabel", f.AudioLabel).
		WhereRange("RiskScore", f.MinScore, f.MaxScore).
		WhereAtLeast("CreatedAt", f.Since).
		WhereBefore("CreatedAt", f.Until)
}

// FiltersFromQuery extracts filter values from URL query parameters.
// risk_level accepts a comma-separated list.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if rl := values.Get("risk_level"); rl != "" {
		for part := range strings.SplitSeq(rl, ",") {
			if part = strings.TrimSpace(part); part != "" {
				f.RiskLevels = append(f.RiskLevels, triage.RiskLevel(part))
			}
		}
	}

	if um := values.Get("user_mode"); um != "" {
		mode := triage.UserMode(um)
		f.UserMode = &mode
	}

	if ia := values.Get("immediate_action"); ia != "" {
		if v, err := strconv.ParseBool(ia); err == nil {
			f.ImmediateAction = &v
		}
	}

	if al := values.Get("audio_label"); al != "" {
		f.AudioLabel = &al
	}

	f.MinScore = floatParam(values, "min_score")
	f.MaxScore = floatParam(values, "max_score")
	f.Since = timeParam(values, "since")
	f.Until = timeParam(values, "until")

	return f
}

func floatParam(values url.Values, key string) *float64 {
	v, err := strconv.ParseFloat(values.Get(key), 64)
	if err != nil {
		return nil
	}
	return &v
}

// timeParam accepts RFC 3339 timestamps or bare dates.
func timeParam(values url.Values, key string) *time.Time {
	raw := values.Get(key)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

func scanReport(s repository.Scanner) (Report, error) {
	var (
		r       Report
		content []byte
	)
	err := s.Scan(
		&r.ID,
		&r.RiskLevel,
		&r.RiskScore,
		&r.UserMode,
		&r.ImmediateAction,
		&r.AudioLabel,
		&r.RecordingKey,
		&r.ExportKey,
		&content,
		&r.CreatedAt,
	)
	if err != nil {
		return r, err
	}

	if err := json.Unmarshal(content, &r.Result); err != nil {
		return r, fmt.Errorf("decode report content: %w", err)
	}
	return r, nil
}
