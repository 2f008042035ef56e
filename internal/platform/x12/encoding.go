package x12

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decoder is one candidate in the decode chain. ok reports whether the
// candidate accepts the input; the last candidate must accept anything.
type decoder struct {
	name string
	ok   func([]byte) bool
	enc  encoding.Encoding
}

// Windows-1252 leaves these bytes unassigned, so a strict cp1252 decode
// rejects them and the chain falls through to ISO-8859-1.
var cp1252Undefined = [256]bool{0x81: true, 0x8D: true, 0x8F: true, 0x90: true, 0x9D: true}

var decoders = []decoder{
	{name: "utf-8", ok: utf8.Valid},
	{name: "windows-1252", ok: func(b []byte) bool {
		for _, c := range b {
			if cp1252Undefined[c] {
				return false
			}
		}
		return true
	}, enc: charmap.Windows1252},
	{name: "iso-8859-1", ok: func([]byte) bool { return true }, enc: charmap.ISO8859_1},
}

// decodeText strips a UTF-8 byte-order mark and converts raw to a Go string
// using the first decoder that accepts it. It returns the decoded text and
// the name of the encoding that won.
func decodeText(raw []byte) (string, string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)

	for _, d := range decoders {
		if !d.ok(raw) {
			continue
		}
		if d.enc == nil {
			return string(raw), d.name, nil
		}
		out, err := d.enc.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		return string(out), d.name, nil
	}

	// Unreachable while iso-8859-1 closes the chain.
	return "", "", formatErrorf("input could not be decoded")
}
