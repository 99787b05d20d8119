package masking

import "regexp"

// TypeNRIC is the entity type produced by client-side detection.
const TypeNRIC = "NRIC"

// nricPattern matches Singapore NRIC/FIN numbers: a series prefix, seven
// digits and a checksum letter.
var nricPattern = regexp.MustCompile(`\b[STFGM]\d{7}[A-Z]\b`)

// DetectNRIC scans answer text for NRIC/FIN numbers the backend did not
// annotate. The result is a rendering hint only; detections are never
// reported back to the knowledge base.
func DetectNRIC(text string, existing []Annotation) []Annotation {
	matches := nricPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	var found []Annotation
	for _, m := range matches {
		if covered(m[0], m[1], existing) {
			continue
		}
		found = append(found, Annotation{
			Type:          TypeNRIC,
			OriginalValue: text[m[0]:m[1]],
			Span:          [2]int{m[0], m[1]},
		})
	}
	return found
}

func covered(start, end int, annotations []Annotation) bool {
	for _, ann := range annotations {
		if start < ann.Span[1] && ann.Span[0] < end {
			return true
		}
	}
	return false
}
