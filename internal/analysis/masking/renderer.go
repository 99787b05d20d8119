package masking

import (
	"html"
	"sort"
	"strings"
)

// Annotation tags a span of answer text as a sensitive entity. Span holds
// [start, end) byte offsets into the raw text.
type Annotation struct {
	Type          string `json:"type"`
	OriginalValue string `json:"original_value"`
	Span          [2]int `json:"span"`
}

// TypeSet is the set of entity types the front end, not the backend, is
// responsible for masking.
type TypeSet map[string]struct{}

// NewTypeSet builds a case-insensitive membership set from the configured
// client-side entity types.
func NewTypeSet(types []string) TypeSet {
	set := make(TypeSet, len(types))
	for _, t := range types {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			set[strings.ToUpper(trimmed)] = struct{}{}
		}
	}
	return set
}

// Contains reports whether entityType is client-masked.
func (s TypeSet) Contains(entityType string) bool {
	_, ok := s[strings.ToUpper(entityType)]
	return ok
}

// Render marks up raw answer text for display. Annotated spans are wrapped
// in a marker element; entity types in clientTypes get the client-masked
// style, everything else the backend-masked style. All text, annotated or
// not, is HTML-escaped, so an entity value can never alter the surrounding
// structure. The transform is pure: identical input yields identical output.
//
// Annotations are processed in ascending span-start order; a span that
// starts before the previous accepted span ends is skipped, as is any span
// outside the text bounds.
func Render(text string, annotations []Annotation, clientTypes TypeSet) string {
	if len(annotations) == 0 {
		return html.EscapeString(text)
	}

	sorted := append([]Annotation(nil), annotations...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Span[0] < sorted[j].Span[0] })

	var b strings.Builder
	cursor := 0
	for _, ann := range sorted {
		start, end := ann.Span[0], ann.Span[1]
		if start < cursor || end <= start || end > len(text) {
			continue
		}

		b.WriteString(html.EscapeString(text[cursor:start]))

		class := "masked-entity"
		if clientTypes.Contains(ann.Type) {
			class = "masked-entity client-masked"
		}
		b.WriteString(`<span class="` + class + `">`)
		b.WriteString(html.EscapeString(text[start:end]))
		b.WriteString(`</span>`)

		cursor = end
	}
	b.WriteString(html.EscapeString(text[cursor:]))

	return b.String()
}
