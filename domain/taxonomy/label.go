package taxonomy

import (
	"strings"
)

// Delimiter separates rank segments in a hierarchical taxon label.
const Delimiter = "|"

// Sentinels used for ranks that a label does not reach.
const (
	Unclassified = "unclassified"
	UnknownTaxon = "Unknown"
)

// Segments splits a hierarchical label into its raw rank segments, with
// boundary empties trimmed. Segments keep their rank prefixes. Parsing is
// total: any input yields a (possibly empty) segment list.
func Segments(label string) []string {
	trimmed := strings.Trim(strings.TrimSpace(label), Delimiter)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, Delimiter)
}

// Parse produces exactly depth rank values for a label. Segments beyond the
// label's own depth are right-filled with the unclassified sentinel, so
// higher ranks are always populated first. Rank prefixes ("k__".."s__") are
// stripped when present; anything else passes through unchanged.
func Parse(label string, depth int) []string {
	if depth < 0 {
		depth = 0
	}
	segs := Segments(label)
	out := make([]string, depth)
	for i := range out {
		if i < len(segs) {
			out[i] = StripPrefix(segs[i])
		} else {
			out[i] = Unclassified
		}
	}
	return out
}

// StripPrefix removes a leading single-lowercase-letter-plus-double-underscore
// rank prefix from a segment if one is present.
func StripPrefix(segment string) string {
	if len(segment) >= 3 && segment[1] == '_' && segment[2] == '_' &&
		segment[0] >= 'a' && segment[0] <= 'z' {
		return segment[3:]
	}
	return segment
}

// Leaf returns the deepest named segment of a label without its rank prefix,
// for use in plot legends. A degenerate label yields the Unknown sentinel.
func Leaf(label string) string {
	segs := Segments(label)
	for i := len(segs) - 1; i >= 0; i-- {
		name := StripPrefix(segs[i])
		if name != "" && name != Unclassified {
			return name
		}
	}
	return UnknownTaxon
}

// Truncate rejoins the first depth segments of a label. ok is false when the
// label has fewer segments than depth; such taxa do not belong in the level
// table for that depth.
func Truncate(label string, depth int) (string, bool) {
	segs := Segments(label)
	if depth <= 0 || len(segs) < depth {
		return "", false
	}
	return strings.Join(segs[:depth], Delimiter), true
}

// Depth returns the number of rank segments in a label.
func Depth(label string) int {
	return len(Segments(label))
}
