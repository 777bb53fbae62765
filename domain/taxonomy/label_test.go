package taxonomy

import (
	"strings"
	"testing"
)

func TestParse_FullLabel(t *testing.T) {
	label := "k__Bacteria|p__Firmicutes|c__Clostridia|o__Clostridiales|f__Lachnospiraceae|g__Blautia|s__Blautia_producta"
	got := Parse(label, 7)
	want := []string{"Bacteria", "Firmicutes", "Clostridia", "Clostridiales", "Lachnospiraceae", "Blautia", "Blautia_producta"}

	if len(got) != 7 {
		t.Fatalf("Parse returned %d values, want 7", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Parse[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParse_RightFillsMissingRanks(t *testing.T) {
	label := "k__Bacteria|p__Bacteroidetes"
	got := Parse(label, 7)

	if got[0] != "Bacteria" || got[1] != "Bacteroidetes" {
		t.Errorf("head ranks = %v, want Bacteria/Bacteroidetes first", got[:2])
	}
	for i := 2; i < 7; i++ {
		if got[i] != Unclassified {
			t.Errorf("Parse[%d] = %q, want %q (missing ranks fill from the tail)", i, got[i], Unclassified)
		}
	}
}

func TestParse_AlwaysYieldsRequestedDepth(t *testing.T) {
	labels := []string{
		"",
		"|||",
		"k__Bacteria",
		"no_prefix_at_all",
		"k__A|p__B|c__C|o__D|f__E|g__F|s__G|x__Extra",
	}
	for _, label := range labels {
		for depth := 0; depth <= 7; depth++ {
			got := Parse(label, depth)
			if len(got) != depth {
				t.Errorf("Parse(%q, %d) yielded %d values", label, depth, len(got))
			}
		}
	}
}

func TestParse_MalformedPrefixPassesThrough(t *testing.T) {
	got := Parse("K__Upper|9__Digit|x_Single", 3)
	want := []string{"K__Upper", "9__Digit", "x_Single"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Parse[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLeaf(t *testing.T) {
	cases := []struct {
		label string
		want  string
	}{
		{"k__Bacteria|p__Firmicutes|g__Blautia", "Blautia"},
		{"k__Bacteria", "Bacteria"},
		{"", UnknownTaxon},
		{"|||", UnknownTaxon},
		{"k__Bacteria|unclassified", "Bacteria"},
	}
	for _, c := range cases {
		if got := Leaf(c.label); got != c.want {
			t.Errorf("Leaf(%q) = %q, want %q", c.label, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	label := "k__Bacteria|p__Firmicutes|c__Clostridia"

	got, ok := Truncate(label, 2)
	if !ok {
		t.Fatal("Truncate at depth 2 should succeed for a 3-segment label")
	}
	if got != "k__Bacteria|p__Firmicutes" {
		t.Errorf("Truncate = %q", got)
	}

	if _, ok := Truncate(label, 4); ok {
		t.Error("Truncate beyond label depth should report ok=false")
	}
	if _, ok := Truncate("", 1); ok {
		t.Error("Truncate of empty label should report ok=false")
	}
}

func TestRanks(t *testing.T) {
	ranks := Ranks(3)
	if len(ranks) != 3 {
		t.Fatalf("Ranks(3) has %d entries", len(ranks))
	}
	if ranks[0] != Kingdom || ranks[2] != Class {
		t.Errorf("Ranks(3) = %v", ranks)
	}
	if Species.Prefix() != "s__" {
		t.Errorf("Species prefix = %q", Species.Prefix())
	}
	if Phylum.String() != "Phylum" {
		t.Errorf("Phylum name = %q", Phylum.String())
	}
	if got := strings.Join(RankNames(2), ","); got != "Kingdom,Phylum" {
		t.Errorf("RankNames(2) = %q", got)
	}
}
