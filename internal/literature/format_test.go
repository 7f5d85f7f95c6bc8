package literature_test

import (
	"errors"
	"testing"

	"github.com/one2ten/stetho-agent/internal/literature"
)

func sampleResult() *literature.Result {
	return &literature.Result{
		Query:      "q",
		TotalCount: 2,
		Successful: true,
		References: []literature.Reference{
			{
				Source: "pubmed", SourceID: "111", Title: "Crackles",
				Authors: []string{"Kim J", "Lee S", "Park H", "Choi Y", "Jung M"},
				Journal: "Chest", Year: "2023",
			},
			{
				Source: "pubmed", SourceID: "222", Title: "Wheeze",
				Journal: "Thorax", Year: "2021",
			},
		},
	}
}

func TestFormatForPrompt(t *testing.T) {
	got := literature.FormatForPrompt(sampleResult())
	want := literature.PromptHeader +
		"\n[1] Crackles. Kim J et al.. Chest, 2023. (PUBMED: 111)" +
		"\n[2] Wheeze. Unknown. Thorax, 2021. (PUBMED: 222)"

	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatForPromptEmpty(t *testing.T) {
	tests := []struct {
		name   string
		result *literature.Result
	}{
		{"nil", nil},
		{"failed", literature.Failed("q", errors.New("down"))},
		{"no references", &literature.Result{Successful: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := literature.FormatForPrompt(tt.result); got != "" {
				t.Errorf("got %q, want empty", got)
			}
		})
	}
}

func TestFormatForDisplay(t *testing.T) {
	got := literature.FormatForDisplay(sampleResult())
	if len(got) != 2 {
		t.Fatalf("len: got %d, want 2", len(got))
	}
	if got[0].Authors != "Kim J, Lee S, Park H and 2 more" {
		t.Errorf("authors: got %q", got[0].Authors)
	}
	if got[1].Authors != "" {
		t.Errorf("authors: got %q, want empty", got[1].Authors)
	}

	if n := len(literature.FormatForDisplay(nil)); n != 0 {
		t.Errorf("nil result: got %d entries", n)
	}
}

func TestFailed(t *testing.T) {
	r := literature.Failed("q", errors.New("down"))
	if r.Successful || r.ErrorMessage != "down" || r.Query != "q" {
		t.Errorf("got %+v", r)
	}
	if r.References == nil {
		t.Error("references should be an empty list, not nil")
	}
}
