package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/visaops/caseflow/internal/types"
)

func TestBuiltinPipelinesAreWellFormed(t *testing.T) {
	r := NewRegistry()
	checked := map[string]bool{}
	for _, pt := range []types.PetitionType{
		types.PetitionPERM, types.PetitionI140, types.PetitionI485,
		types.PetitionH1B, types.PetitionL1, types.PetitionO1,
	} {
		p := r.Lookup(pt)
		if checked[p.Name] {
			continue
		}
		checked[p.Name] = true
		if err := p.validate(); err != nil {
			t.Errorf("pipeline %s: %v", p.Name, err)
		}
		if p.MaxWeight() != 100 {
			t.Errorf("pipeline %s: max weight = %d, want 100", p.Name, p.MaxWeight())
		}
		last := p.Stages[len(p.Stages)-1]
		if !last.Terminal {
			t.Errorf("pipeline %s: last stage %s is not terminal", p.Name, last.Type)
		}
	}
}

func TestLookupUnmappedTypeIsDeterministic(t *testing.T) {
	r := NewRegistry()
	// L-1 has no dedicated table, so it falls back
	first := r.Lookup(types.PetitionL1)
	second := r.Lookup(types.PetitionL1)
	if first != second {
		t.Error("fallback lookups returned different instances")
	}
	if first != r.Default() {
		t.Error("fallback is not the shared default pipeline")
	}
	if other := r.Lookup(types.PetitionType("made-up")); other != first {
		t.Error("unknown type did not fall back to the default pipeline")
	}
}

func TestLookupExactMatchOnly(t *testing.T) {
	r := NewRegistry()
	// "i14" is a prefix of "i140" but must not match it
	if got := r.Lookup(types.PetitionType("i14")); got != r.Default() {
		t.Errorf("prefix lookup matched %s, want default", got.Name)
	}
	if got := r.Lookup(types.PetitionI140); got.Name != "i140" {
		t.Errorf("Lookup(i140) = %s, want i140", got.Name)
	}
}

func TestLoadOverlay(t *testing.T) {
	overlay := `
pipelines:
  l1:
    - milestone_type: case_opened
      label: Case Opened
      weight: 20
      required: true
    - milestone_type: petition_filed
      label: I-129 Filed
      weight: 70
      required: true
    - milestone_type: petition_approved
      label: L-1 Approved
      weight: 100
      required: true
      terminal: true
`
	path := filepath.Join(t.TempDir(), "pipelines.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadOverlay(path); err != nil {
		t.Fatalf("LoadOverlay() = %v", err)
	}

	p := r.Lookup(types.PetitionL1)
	if p.Name != "l1" {
		t.Fatalf("Lookup(l1) = %s, want overlay pipeline", p.Name)
	}
	if len(p.Stages) != 3 || p.Stages[1].Weight != 70 {
		t.Errorf("overlay stages not applied: %+v", p.Stages)
	}
}

func TestLoadOverlayRejectsBadWeights(t *testing.T) {
	overlay := `
pipelines:
  l1:
    - milestone_type: case_opened
      label: Case Opened
      weight: 50
      required: true
`
	path := filepath.Join(t.TempDir(), "pipelines.yaml")
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := r.LoadOverlay(path); err == nil {
		t.Error("expected error for pipeline whose heaviest stage is not 100")
	}
}
