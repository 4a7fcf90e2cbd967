package rdh

import "testing"

func TestDirectoryStringRoundTrip(t *testing.T) {
	cases := []string{"", "alice", "Alice Müller", "café £20", "a b c"}
	for _, name := range cases {
		encoded, err := EncodeDirectoryString(name)
		if err != nil {
			t.Fatalf("encode %q: %v", name, err)
		}
		if decoded := DecodeDirectoryString(encoded); decoded != name {
			t.Fatalf("round trip of %q gave %q", name, decoded)
		}
	}
}

func TestEncodeDirectoryStringUsesCodePage(t *testing.T) {
	// "Müller" in Windows-1252 is 4D FC 6C 6C 65 72, not the UTF-8
	// bytes; the wire form pins the code page.
	encoded, err := EncodeDirectoryString("Müller")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if encoded != "TfxsbGVy" {
		t.Fatalf("encoded = %q, want TfxsbGVy", encoded)
	}
}

func TestEncodeDirectoryStringRejectsUnmappableRunes(t *testing.T) {
	if _, err := EncodeDirectoryString("日本語"); err == nil {
		t.Fatalf("expected encode of non-Windows-1252 text to fail")
	}
}

func TestDecodeDirectoryStringPassesThroughBareText(t *testing.T) {
	// Not a multiple of four base64 characters, so the value cannot be
	// a wire-encoded name and is taken literally.
	if got := DecodeDirectoryString("guest"); got != "guest" {
		t.Fatalf("decoded = %q, want the input unchanged", got)
	}
	if got := DecodeDirectoryString("not base64!!!"); got != "not base64!!!" {
		t.Fatalf("decoded = %q, want the input unchanged", got)
	}
}

func TestDecodeDirectoryStringTrimsWhitespace(t *testing.T) {
	if decoded := DecodeDirectoryString(" QWxpY2U=\n"); decoded != "Alice" {
		t.Fatalf("decoded = %q, want Alice", decoded)
	}
}
