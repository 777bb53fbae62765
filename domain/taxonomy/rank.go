package taxonomy

// Rank identifies one level of the biological classification hierarchy.
// Ranks are ordered Kingdom (shallowest) through Species (deepest), so a
// depth d always selects the first d values of the enumeration.
type Rank int

const (
	Kingdom Rank = iota + 1
	Phylum
	Class
	Order
	Family
	Genus
	Species
)

// MaxDepth is the number of ranks handled by the pipeline.
const MaxDepth = int(Species)

var rankNames = [...]string{"Kingdom", "Phylum", "Class", "Order", "Family", "Genus", "Species"}

var rankPrefixes = [...]string{"k__", "p__", "c__", "o__", "f__", "g__", "s__"}

// String returns the rank's display name.
func (r Rank) String() string {
	if r < Kingdom || r > Species {
		return "Unknown"
	}
	return rankNames[r-1]
}

// Prefix returns the single-letter rank prefix used in Kraken2-style labels,
// e.g. "p__" for Phylum.
func (r Rank) Prefix() string {
	if r < Kingdom || r > Species {
		return ""
	}
	return rankPrefixes[r-1]
}

// Valid reports whether the rank is within Kingdom..Species.
func (r Rank) Valid() bool {
	return r >= Kingdom && r <= Species
}

// Ranks returns the first depth ranks in hierarchy order.
// Depth is clamped to [0, MaxDepth].
func Ranks(depth int) []Rank {
	if depth < 0 {
		depth = 0
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}
	out := make([]Rank, depth)
	for i := range out {
		out[i] = Rank(i + 1)
	}
	return out
}

// RankNames returns the display names for the first depth ranks.
func RankNames(depth int) []string {
	ranks := Ranks(depth)
	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.String()
	}
	return out
}
