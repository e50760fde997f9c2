package streamtyped

import (
	"testing"

	"howett.net/plist"
)

// legacyBlob builds <prefix><0x01,0x2B><payload><0x86,0x84><suffix>.
func legacyBlob(prefix, payload, suffix []byte) []byte {
	blob := append([]byte{}, prefix...)
	blob = append(blob, 0x01, 0x2B)
	blob = append(blob, payload...)
	blob = append(blob, 0x86, 0x84)
	return append(blob, suffix...)
}

func TestDecodeLegacy_ValidUTF8DropsOneChar(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"ascii", "\x05Hello world", "Hello world"},
		{"multibyte first char", "早Hello", "Hello"},
		{"emoji body", "\x10Hi 👋 there", "Hi 👋 there"},
		{"single char payload drops to nothing", "x", ""},
	}
	d := NewDecoder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := legacyBlob([]byte("\x04\x0bstreamtyped\x00garbage"), []byte(tt.payload), []byte("trailing"))
			got, ok := d.Decode(blob)
			if tt.want == "" {
				if ok {
					t.Fatalf("expected no text, got %q", got)
				}
				return
			}
			if !ok || got != tt.want {
				t.Fatalf("Decode = %q, %v; want %q, true", got, ok, tt.want)
			}
		})
	}
}

func TestDecodeLegacy_LossyDropsThreeChars(t *testing.T) {
	// Payload opens with two invalid bytes; lossy decoding yields
	// <FFFD><FFFD>aHello and three chars are dropped.
	payload := []byte{0xFF, 0xFE, 'a', 'H', 'e', 'l', 'l', 'o'}
	blob := legacyBlob([]byte("\x04\x0bstreamtyped"), payload, nil)

	got, ok := NewDecoder().Decode(blob)
	if !ok || got != "Hello" {
		t.Fatalf("Decode = %q, %v; want \"Hello\", true", got, ok)
	}
}

func TestDecodeLegacy_MissingMarkers(t *testing.T) {
	d := NewDecoder()

	if _, ok := d.Decode([]byte("\x04\x0bstreamtyped no start marker here")); ok {
		t.Error("expected failure without start marker")
	}
	if _, ok := d.Decode([]byte("\x04\x0bstreamtyped\x01\x2Bno end marker")); ok {
		t.Error("expected failure without end marker")
	}
	if _, ok := d.Decode(nil); ok {
		t.Error("expected failure on empty buffer")
	}
	// Start marker at the very end leaves fewer than 2 trailing bytes.
	if _, ok := d.Decode([]byte{0x04, 0x0b, 's', 't', 'r', 'e', 'a', 'm', 't', 'y', 'p', 'e', 'd', 0x01, 0x2B, 0x86}); ok {
		t.Error("expected failure when remainder is too short")
	}
}

func TestDecodeLegacy_EndMarkerScanStartsAtOffsetOne(t *testing.T) {
	// First payload byte is 0x86: a naive scan from offset 0 would pair it
	// with a following 0x84 and truncate everything.
	payload := []byte{0x86, 'H', 'i'}
	blob := legacyBlob([]byte("\x04\x0bstreamtyped"), payload, nil)

	got, ok := NewDecoder().Decode(blob)
	if !ok || got != "Hi" {
		t.Fatalf("Decode = %q, %v; want \"Hi\", true", got, ok)
	}
}

func TestDecodeKeyedArchive(t *testing.T) {
	archive := map[string]interface{}{
		"$archiver": "NSKeyedArchiver",
		"$version":  100000,
		"$objects": []interface{}{
			"$null",
			map[string]interface{}{
				"NSString":     plist.UID(2),
				"NSAttributes": plist.UID(3),
			},
			"Hello from the archive",
			map[string]interface{}{},
		},
		"$top": map[string]interface{}{"root": plist.UID(1)},
	}
	data, err := plist.Marshal(archive, plist.BinaryFormat)
	if err != nil {
		t.Fatalf("building archive fixture: %v", err)
	}

	got, ok := NewDecoder().Decode(data)
	if !ok || got != "Hello from the archive" {
		t.Fatalf("Decode = %q, %v; want archive string, true", got, ok)
	}
}

func TestDecodeKeyedArchive_MutableStringShape(t *testing.T) {
	archive := map[string]interface{}{
		"$archiver": "NSKeyedArchiver",
		"$objects": []interface{}{
			"$null",
			map[string]interface{}{"NSString": plist.UID(2)},
			map[string]interface{}{"NS.string": "mutable text"},
		},
		"$top": map[string]interface{}{"root": plist.UID(1)},
	}
	data, err := plist.Marshal(archive, plist.BinaryFormat)
	if err != nil {
		t.Fatalf("building archive fixture: %v", err)
	}

	got, ok := NewDecoder().Decode(data)
	if !ok || got != "mutable text" {
		t.Fatalf("Decode = %q, %v; want \"mutable text\", true", got, ok)
	}
}

func TestDecode_ModernFallsBackToLegacy(t *testing.T) {
	// Not a plist and no legacy header: keyed-archive path fails, legacy
	// marker scan still recovers the payload.
	blob := legacyBlob([]byte("leading junk"), []byte("\x05fallback"), nil)

	got, ok := NewDecoder().Decode(blob)
	if !ok || got != "fallback" {
		t.Fatalf("Decode = %q, %v; want \"fallback\", true", got, ok)
	}
}
