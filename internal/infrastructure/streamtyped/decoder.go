// Package streamtyped recovers plain text from the rich-text blobs the
// source database stores when the plain-text column is absent. Two binary
// shapes exist: the undocumented marker-delimited legacy archive and the
// modern keyed-archive (binary plist) format.
package streamtyped

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"howett.net/plist"
)

var (
	// legacyHeader opens every legacy archive blob.
	legacyHeader = []byte("\x04\x0bstreamtyped")

	startMarker = []byte{0x01, 0x2B}
	endMarker   = []byte{0x86, 0x84}

	errNoStartMarker = errors.New("streamtyped: no start marker")
	errNoEndMarker   = errors.New("streamtyped: no end marker")
)

// Decoder 富文本解码器, 无状态且并发安全
type Decoder struct{}

// NewDecoder 创建解码器
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode attempts to recover the text payload from a rich-text blob.
// Blobs opening with the legacy header take the legacy marker-scan path
// directly; anything else tries the keyed-archive path first and falls
// back to the legacy path on the same buffer. Internal failures are
// absorbed: callers only ever see (text, true) or ("", false).
func (d *Decoder) Decode(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	if bytes.HasPrefix(data, legacyHeader) {
		return decodeLegacy(data)
	}
	if text, ok := decodeKeyedArchive(data); ok {
		return text, true
	}
	return decodeLegacy(data)
}

func decodeLegacy(data []byte) (string, bool) {
	payload, err := extractLegacyPayload(data)
	if err != nil {
		return "", false
	}

	drop := 1
	text := string(payload)
	if !utf8.Valid(payload) {
		text = decodeLossy(payload)
		drop = 3
	}
	return dropLeadingChars(text, drop)
}

// extractLegacyPayload cuts the byte range between the start and end
// markers. The end-marker scan begins at offset 1 of the remainder: the
// byte right after the start marker may itself be 0x86.
func extractLegacyPayload(data []byte) ([]byte, error) {
	start := bytes.Index(data, startMarker)
	if start < 0 {
		return nil, errNoStartMarker
	}
	rest := data[start+len(startMarker):]
	if len(rest) < 2 {
		return nil, errNoEndMarker
	}
	end := bytes.Index(rest[1:], endMarker)
	if end < 0 {
		return nil, errNoEndMarker
	}
	return rest[:1+end], nil
}

// decodeLossy converts bytes to a string, substituting U+FFFD for every
// invalid byte.
func decodeLossy(data []byte) string {
	var b bytes.Buffer
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			b.WriteRune(utf8.RuneError)
		} else {
			b.WriteRune(r)
		}
		data = data[size:]
	}
	return b.String()
}

// dropLeadingChars removes exactly n leading characters, respecting
// multi-byte boundaries. Too-short input or an empty remainder is
// "no text", not an error.
func dropLeadingChars(s string, n int) (string, bool) {
	skipped := 0
	for i := range s {
		if skipped == n {
			return s[i:], true
		}
		skipped++
	}
	return "", false
}

// decodeKeyedArchive unarchives the buffer as a generic keyed object graph
// and extracts the plain string of the embedded styled-text object. Any
// shape mismatch is a plain failure; the caller falls back to the legacy
// path.
func decodeKeyedArchive(data []byte) (string, bool) {
	var archive map[string]interface{}
	if _, err := plist.Unmarshal(data, &archive); err != nil {
		return "", false
	}
	objects, ok := archive["$objects"].([]interface{})
	if !ok {
		return "", false
	}

	deref := func(v interface{}) interface{} {
		if uid, isUID := v.(plist.UID); isUID && int(uid) < len(objects) {
			return objects[uid]
		}
		return v
	}

	for _, obj := range objects {
		dict, isDict := obj.(map[string]interface{})
		if !isDict {
			continue
		}
		ref, found := dict["NSString"]
		if !found {
			continue
		}
		switch v := deref(ref).(type) {
		case string:
			if v != "" {
				return v, true
			}
		case map[string]interface{}:
			// Mutable strings archive as {"NS.string": <text>}.
			if inner, isStr := v["NS.string"].(string); isStr && inner != "" {
				return inner, true
			}
		}
	}
	return "", false
}
