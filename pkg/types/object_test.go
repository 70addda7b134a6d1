package types

import "testing"

func TestObjectKindRoundTrip(t *testing.T) {
	for _, kind := range []ObjectKind{KindCommit, KindTree, KindBlob, KindTag} {
		parsed, err := ObjectKindFromString(kind.String())
		if err != nil {
			t.Fatalf("ObjectKindFromString(%q): %v", kind, err)
		}
		if parsed != kind {
			t.Errorf("round trip of %v gave %v", kind, parsed)
		}
	}
	if _, err := ObjectKindFromString("submodule"); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestSituationRoundTrip(t *testing.T) {
	situations := []Situation{
		SituationCommit, SituationTag, SituationBeginTree, SituationEndTree, SituationBlob,
	}
	for _, s := range situations {
		parsed, err := SituationFromString(s.String())
		if err != nil {
			t.Fatalf("SituationFromString(%q): %v", s, err)
		}
		if parsed != s {
			t.Errorf("round trip of %v gave %v", s, parsed)
		}
	}
	if _, err := SituationFromString("mid-tree"); err == nil {
		t.Error("unknown situation should fail")
	}
}

func TestObjectIDHex(t *testing.T) {
	const hex = "0123456789abcdef0123456789abcdef01234567"
	id, err := ObjectIDFromHex(hex)
	if err != nil {
		t.Fatal(err)
	}
	if len(id) != 20 {
		t.Errorf("len = %d, want 20", len(id))
	}
	if id.Hex() != hex {
		t.Errorf("Hex() = %q, want %q", id.Hex(), hex)
	}

	if _, err := ObjectIDFromHex("not-hex"); err == nil {
		t.Error("invalid hex should fail")
	}
}

func TestDirectiveValues(t *testing.T) {
	if !DirectiveShow.MarkSeen || !DirectiveShow.Show || DirectiveShow.Omit {
		t.Error("DirectiveShow should mark seen and show")
	}
	if !DirectiveOmit.MarkSeen || DirectiveOmit.Show || !DirectiveOmit.Omit {
		t.Error("DirectiveOmit should mark seen and omit")
	}
	if DirectiveNone != (Directive{}) {
		t.Error("DirectiveNone should be the zero directive")
	}
}
