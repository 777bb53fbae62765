package tsv

import (
	"os"
	"path/filepath"
	"testing"

	"metadiv/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAbundance(t *testing.T) {
	path := writeFile(t, "abundance.tsv",
		"Taxa\tS1\tS2\tS3\n"+
			"k__Bacteria|p__Firmicutes\t10\t20\t30\n"+
			"k__Bacteria|p__Bacteroidota\t5\t\tbogus\n"+ // blank and unparsable cells
			"k__Bacteria|p__Empty\t0\t0\t0\n") // zero-total row

	tbl, err := LoadAbundance(path)
	if err != nil {
		t.Fatalf("LoadAbundance failed: %v", err)
	}
	if got := tbl.NSamples(); got != 3 {
		t.Fatalf("NSamples = %d, want 3", got)
	}
	if got := tbl.NTaxa(); got != 2 {
		t.Fatalf("NTaxa = %d, want 2 (zero row filtered)", got)
	}
	// Missing and unparsable cells read as zero.
	if v := tbl.Value(1, 1); v != 0 {
		t.Errorf("blank cell = %g, want 0", v)
	}
	if v := tbl.Value(1, 2); v != 0 {
		t.Errorf("unparsable cell = %g, want 0", v)
	}
	if v := tbl.Value(0, 2); v != 30 {
		t.Errorf("Value(0, S3) = %g, want 30", v)
	}
}

func TestLoadAbundanceShortRow(t *testing.T) {
	path := writeFile(t, "short.tsv",
		"Taxa\tS1\tS2\n"+
			"k__A\t7\n"+ // short row: S2 missing
			"k__B\t1\t2\n")
	tbl, err := LoadAbundance(path)
	if err != nil {
		t.Fatal(err)
	}
	if v := tbl.Value(0, 1); v != 0 {
		t.Errorf("missing trailing cell = %g, want 0", v)
	}
}

func TestLoadAbundanceTooFewTaxa(t *testing.T) {
	path := writeFile(t, "thin.tsv",
		"Taxa\tS1\n"+
			"k__OnlyOne\t5\n"+
			"k__Zeroed\t0\n")
	_, err := LoadAbundance(path)
	if err == nil {
		t.Fatal("expected insufficiency error")
	}
	if code := errors.GetCode(err); code != errors.CodeDataInsufficient {
		t.Errorf("error code = %s, want %s", code, errors.CodeDataInsufficient)
	}
}

func TestLoadAbundanceMissingFile(t *testing.T) {
	if _, err := LoadAbundance(filepath.Join(t.TempDir(), "nope.tsv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadMetadata(t *testing.T) {
	path := writeFile(t, "meta.tsv",
		"sample\tgroup\tsrr\n"+
			"S1\tControl\tSRR100\n"+
			"S2\tTreatment\t\n")
	meta, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("LoadMetadata failed: %v", err)
	}
	if g, _ := meta.Group("S1"); g != "Control" {
		t.Errorf("Group(S1) = %q, want Control", g)
	}
	if g, _ := meta.Group("S2"); g != "Treatment" {
		t.Errorf("Group(S2) = %q, want Treatment", g)
	}
}

func TestLoadMetadataHeaderAliases(t *testing.T) {
	// "condition" is accepted for the group column, "run" for accessions.
	path := writeFile(t, "meta.tsv",
		"Sample\tCondition\tRun\n"+
			"S1\tA\tSRR1\n"+
			"S2\tB\tSRR2\n")
	if _, err := LoadMetadata(path); err != nil {
		t.Fatalf("LoadMetadata failed: %v", err)
	}
}

func TestLoadMetadataMissingColumns(t *testing.T) {
	path := writeFile(t, "meta.tsv", "sample\tnotes\nS1\thello\n")
	if _, err := LoadMetadata(path); err == nil {
		t.Error("expected error for missing group column")
	}
}
