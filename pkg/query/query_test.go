package query_test

import (
	"slices"
	"testing"

	"github.com/one2ten/stetho-agent/pkg/query"
)

const selectReports = "SELECT r.id, r.risk_level, r.risk_score, r.created_at FROM public.reports r"

func reportProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "reports", "r").
		Project("id", "ID").
		Project("risk_level", "RiskLevel").
		Project("risk_score", "RiskScore").
		Project("created_at", "CreatedAt")
}

func ptr[T any](v T) *T { return &v }

func TestProjectionMap(t *testing.T) {
	p := reportProjection()

	if got := p.From(); got != "public.reports r" {
		t.Errorf("From() = %q", got)
	}
	if got := p.Alias(); got != "r" {
		t.Errorf("Alias() = %q", got)
	}
	want := []string{"r.id", "r.risk_level", "r.risk_score", "r.created_at"}
	if got := p.ColumnList(); !slices.Equal(got, want) {
		t.Errorf("ColumnList() = %v, want %v", got, want)
	}

	tests := []struct {
		view string
		want string
	}{
		{"RiskLevel", "r.risk_level"},
		{"CreatedAt", "r.created_at"},
		{"risk_score", "r.risk_score"},
		{"unmapped", "unmapped"},
	}
	for _, tt := range tests {
		if got := p.Column(tt.view); got != tt.want {
			t.Errorf("Column(%q) = %q, want %q", tt.view, got, tt.want)
		}
	}

	if _, ok := p.Lookup("risk_level; DROP TABLE reports"); ok {
		t.Error("Lookup should only resolve projected fields")
	}
}

func TestParseSortFields(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []query.SortField
	}{
		{"empty", "", nil},
		{"ascending", "RiskLevel", []query.SortField{{Field: "RiskLevel"}}},
		{"descending", "-CreatedAt", []query.SortField{{Field: "CreatedAt", Descending: true}}},
		{
			"mixed with spaces",
			" RiskScore , -CreatedAt ",
			[]query.SortField{{Field: "RiskScore"}, {Field: "CreatedAt", Descending: true}},
		},
		{"blank entries skipped", "ID,,-,", []query.SortField{{Field: "ID"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := query.ParseSortFields(tt.input)
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseSortFields(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestBuilderConditions(t *testing.T) {
	tests := []struct {
		name      string
		apply     func(b *query.Builder)
		wantWhere string
		wantArgs  []any
	}{
		{
			name:  "no conditions",
			apply: func(b *query.Builder) {},
		},
		{
			name:      "equals",
			apply:     func(b *query.Builder) { b.WhereEquals("RiskLevel", "high") },
			wantWhere: " WHERE r.risk_level = $1",
			wantArgs:  []any{"high"},
		},
		{
			name:  "nil values skipped",
			apply: func(b *query.Builder) { b.WhereEquals("RiskLevel", (*string)(nil)).WhereAtLeast("RiskScore", nil) },
		},
		{
			name:      "contains",
			apply:     func(b *query.Builder) { b.WhereContains("RiskLevel", ptr("crit")) },
			wantWhere: " WHERE r.risk_level ILIKE $1",
			wantArgs:  []any{"%crit%"},
		},
		{
			name:  "empty contains skipped",
			apply: func(b *query.Builder) { b.WhereContains("RiskLevel", ptr("")) },
		},
		{
			name:      "in",
			apply:     func(b *query.Builder) { b.WhereIn("RiskLevel", []any{"high", "critical"}) },
			wantWhere: " WHERE r.risk_level IN ($1, $2)",
			wantArgs:  []any{"high", "critical"},
		},
		{
			name:  "empty in skipped",
			apply: func(b *query.Builder) { b.WhereIn("RiskLevel", nil) },
		},
		{
			name:      "full range",
			apply:     func(b *query.Builder) { b.WhereRange("RiskScore", 20.0, 80.0) },
			wantWhere: " WHERE r.risk_score >= $1 AND r.risk_score <= $2",
			wantArgs:  []any{20.0, 80.0},
		},
		{
			name:      "open range",
			apply:     func(b *query.Builder) { b.WhereRange("RiskScore", nil, ptr(50.0)) },
			wantWhere: " WHERE r.risk_score <= $1",
		},
		{
			name:      "before",
			apply:     func(b *query.Builder) { b.WhereBefore("CreatedAt", "2026-01-01") },
			wantWhere: " WHERE r.created_at < $1",
			wantArgs:  []any{"2026-01-01"},
		},
		{
			name:      "search",
			apply:     func(b *query.Builder) { b.WhereSearch(ptr("mur"), "RiskLevel", "ID") },
			wantWhere: " WHERE (r.risk_level ILIKE $1 OR r.id ILIKE $2)",
			wantArgs:  []any{"%mur%", "%mur%"},
		},
		{
			name:  "nil search skipped",
			apply: func(b *query.Builder) { b.WhereSearch(nil, "RiskLevel") },
		},
		{
			name: "numbering continues across conditions",
			apply: func(b *query.Builder) {
				b.WhereSearch(ptr("x"), "RiskLevel", "ID").
					WhereIn("RiskLevel", []any{"low", "moderate"}).
					WhereAtLeast("RiskScore", 10.0)
			},
			wantWhere: " WHERE (r.risk_level ILIKE $1 OR r.id ILIKE $2) AND r.risk_level IN ($3, $4) AND r.risk_score >= $5",
			wantArgs:  []any{"%x%", "%x%", "low", "moderate", 10.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := query.NewBuilder(reportProjection())
			tt.apply(b)
			sql, args := b.Build()

			if want := selectReports + tt.wantWhere; sql != want {
				t.Errorf("sql = %q, want %q", sql, want)
			}
			if tt.wantArgs != nil && !slices.Equal(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
			if tt.wantWhere == "" && len(args) != 0 {
				t.Errorf("args = %v, want none", args)
			}
		})
	}
}

func TestBuilderStatements(t *testing.T) {
	newBuilder := func() *query.Builder {
		return query.
			NewBuilder(reportProjection(), query.SortField{Field: "CreatedAt", Descending: true}).
			WhereEquals("RiskLevel", "high")
	}

	t.Run("count ignores ordering", func(t *testing.T) {
		sql, args := newBuilder().BuildCount()
		if want := "SELECT COUNT(*) FROM public.reports r WHERE r.risk_level = $1"; sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
		if len(args) != 1 {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("page", func(t *testing.T) {
		sql, _ := newBuilder().BuildPage(3, 20)
		want := selectReports + " WHERE r.risk_level = $1 ORDER BY r.created_at DESC LIMIT 20 OFFSET 40"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
	})

	t.Run("page below one clamps", func(t *testing.T) {
		sql, _ := newBuilder().BuildPage(0, 5)
		want := selectReports + " WHERE r.risk_level = $1 ORDER BY r.created_at DESC LIMIT 5 OFFSET 0"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
	})

	t.Run("explicit sort replaces default", func(t *testing.T) {
		sql, _ := newBuilder().
			OrderByFields([]query.SortField{{Field: "RiskScore", Descending: true}, {Field: "ID"}}).
			Build()
		want := selectReports + " WHERE r.risk_level = $1 ORDER BY r.risk_score DESC, r.id ASC"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
	})

	t.Run("unknown sort fields dropped", func(t *testing.T) {
		sql, _ := newBuilder().
			OrderByFields([]query.SortField{{Field: "1; DROP TABLE reports"}, {Field: "RiskScore"}}).
			Build()
		want := selectReports + " WHERE r.risk_level = $1 ORDER BY r.risk_score ASC"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}

		sql, _ = newBuilder().OrderByFields([]query.SortField{{Field: "Nope"}}).Build()
		want = selectReports + " WHERE r.risk_level = $1 ORDER BY r.created_at DESC"
		if sql != want {
			t.Errorf("all unknown: sql = %q, want %q", sql, want)
		}
	})

	t.Run("single ignores conditions", func(t *testing.T) {
		sql, args := newBuilder().BuildSingle("ID", "abc")
		if want := selectReports + " WHERE r.id = $1"; sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
		if len(args) != 1 || args[0] != "abc" {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("single or null", func(t *testing.T) {
		sql, _ := newBuilder().BuildSingleOrNull()
		want := selectReports + " WHERE r.risk_level = $1 ORDER BY r.created_at DESC LIMIT 1"
		if sql != want {
			t.Errorf("sql = %q, want %q", sql, want)
		}
	})
}
