package fat16

import "testing"

// TestEncode83RoundTrip checks invariant 1: for every valid name of the
// shape base(<=8) + "." + ext(<=3) in [A-Z0-9], (encode, decode) is the
// identity, and lowercase input folds to uppercase.
func TestEncode83RoundTrip(t *testing.T) {
	cases := []string{
		"A", "README", "A.TXT", "ABCDEFGH", "ABCDEFGH.TXT", "X.C", "A1B2.C3",
	}
	for _, name := range cases {
		nameField, extField, err := encode83(name)
		if err != nil {
			t.Fatalf("encode83(%q): %v", name, err)
		}
		got := decode83(nameField, extField)
		if got != name {
			t.Errorf("round trip %q -> %q", name, got)
		}
	}
}

func TestEncode83LowercaseFolds(t *testing.T) {
	n1, e1, err := encode83("readme.txt")
	if err != nil {
		t.Fatalf("encode83: %v", err)
	}
	n2, e2, err := encode83("README.TXT")
	if err != nil {
		t.Fatalf("encode83: %v", err)
	}
	if n1 != n2 || e1 != e2 {
		t.Errorf("lowercase input did not fold to the same encoding as uppercase")
	}
}

func TestEncode83RejectsOverlongNames(t *testing.T) {
	if _, _, err := encode83("TOOLONGNAME"); err == nil {
		t.Error("expected error for base > 8 chars")
	}
	if _, _, err := encode83("A.TOOLONG"); err == nil {
		t.Error("expected error for extension > 3 chars")
	}
}

func TestNames83Equal(t *testing.T) {
	if !names83Equal("readme.txt", "README.TXT") {
		t.Error("expected case-insensitive equality")
	}
	if names83Equal("A.TXT", "B.TXT") {
		t.Error("expected inequality for different names")
	}
}

func TestEncodeDecodeDirEntry(t *testing.T) {
	raw, err := encodeDirEntry("A.TXT", AttrArchive, 5, 42)
	if err != nil {
		t.Fatalf("encodeDirEntry: %v", err)
	}
	entry, err := decodeDirEntry(raw[:], 100, 0)
	if err != nil {
		t.Fatalf("decodeDirEntry: %v", err)
	}
	if entry.Name != "A.TXT" || entry.Attr != AttrArchive || entry.FirstCluster != 5 || entry.Size != 42 {
		t.Errorf("decoded entry = %+v", entry)
	}
}
