// Package x12 reads raw X12 EDI interchanges: it decodes the bytes, detects
// the inline delimiters, tokenizes segments and normalizes element values.
// It knows nothing about any particular transaction set.
package x12

import "io"

// Read consumes r fully and detects the document envelope. Read failures
// are reported as *FormatError.
func Read(r io.Reader) (*Envelope, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, &FormatError{Reason: "cannot read input", Err: err}
	}
	if len(raw) == 0 {
		return nil, formatErrorf("input is empty")
	}

	return Detect(raw)
}
