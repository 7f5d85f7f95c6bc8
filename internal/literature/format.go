package literature

import (
	"fmt"
	"strings"
)

// PromptHeader opens the reference block embedded in prompts.
const PromptHeader = "[Medical literature references]"

// FormatForPrompt renders references as a numbered citation list for
// inclusion in a narrative prompt. It returns an empty string unless the
// search succeeded with at least one reference.
func FormatForPrompt(r *Result) string {
	if r == nil || !r.Successful || len(r.References) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(PromptHeader)
	for i, ref := range r.References {
		firstAuthor := "Unknown"
		if len(ref.Authors) > 0 {
			firstAuthor = ref.Authors[0]
		}
		etAl := ""
		if len(ref.Authors) > 1 {
			etAl = " et al."
		}
		fmt.Fprintf(&sb, "\n[%d] %s. %s%s. %s, %s. (%s: %s)",
			i+1, ref.Title, firstAuthor, etAl, ref.Journal, ref.Year,
			strings.ToUpper(ref.Source), ref.SourceID,
		)
	}
	return sb.String()
}

// DisplayReference is a reference shaped for presentation.
type DisplayReference struct {
	Title    string `json:"title"`
	Authors  string `json:"authors"`
	Journal  string `json:"journal"`
	Year     string `json:"year"`
	URL      string `json:"url"`
	Source   string `json:"source"`
	SourceID string `json:"source_id"`
}

// FormatForDisplay lists at most three authors per reference and summarizes
// the rest. Unsuccessful or empty results yield an empty list.
func FormatForDisplay(r *Result) []DisplayReference {
	if r == nil || !r.Successful || len(r.References) == 0 {
		return []DisplayReference{}
	}

	out := make([]DisplayReference, 0, len(r.References))
	for _, ref := range r.References {
		authors := strings.Join(ref.Authors[:min(len(ref.Authors), 3)], ", ")
		if extra := len(ref.Authors) - 3; extra > 0 {
			authors += fmt.Sprintf(" and %d more", extra)
		}

		out = append(out, DisplayReference{
			Title:    ref.Title,
			Authors:  authors,
			Journal:  ref.Journal,
			Year:     ref.Year,
			URL:      ref.URL,
			Source:   ref.Source,
			SourceID: ref.SourceID,
		})
	}
	return out
}
