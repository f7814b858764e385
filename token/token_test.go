package token

import (
	"testing"
)

func TestGenerateDecodeRoundTrip(t *testing.T) {
	plaintext, id, secretHash, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	gotID, gotHash, err := Decode(plaintext)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if gotID != id {
		t.Fatalf("id mismatch: %q vs %q", gotID, id)
	}
	if gotHash != secretHash {
		t.Fatal("secret hash mismatch")
	}
}

func TestGenerateIsUnique(t *testing.T) {
	_, id1, _, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	_, id2, _, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if id1 == id2 {
		t.Fatal("expected distinct token ids")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"not base64 !!!",
		"c2hvcnQ",
	}
	for _, input := range cases {
		if _, _, err := Decode(input); err == nil {
			t.Fatalf("expected %q to be rejected", input)
		}
	}
}
