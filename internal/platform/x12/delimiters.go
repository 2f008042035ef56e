package x12

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSegmentTerminator is assumed when a document without an ISA header
// never shows a plausible terminator after its ST segment.
const DefaultSegmentTerminator = '~'

// isaElementCount is the fixed number of data elements in an ISA segment.
const isaElementCount = 16

// Delimiters are the two separator characters a document declares inline.
type Delimiters struct {
	Element rune
	Segment rune
}

// String renders both delimiters quoted so control characters such as a
// newline terminator stay visible in messages.
func (d Delimiters) String() string {
	return fmt.Sprintf("element separator %q, segment terminator %q", d.Element, d.Segment)
}

// Envelope is the result of delimiter detection: the decoded document text
// and where its usable segment data begins.
type Envelope struct {
	Text           string
	Encoding       string
	Delimiters     Delimiters
	Start          int
	HasInterchange bool
}

// Segments tokenizes the envelope's data region.
func (e *Envelope) Segments() []Segment {
	return Tokenize(e.Text, e.Start, e.Delimiters)
}

// Summary describes a detected envelope without interpreting any segment.
type Summary struct {
	Encoding          string         `json:"encoding" yaml:"encoding"`
	ElementSeparator  string         `json:"elementSeparator" yaml:"elementSeparator"`
	SegmentTerminator string         `json:"segmentTerminator" yaml:"segmentTerminator"`
	HasInterchange    bool           `json:"hasInterchange" yaml:"hasInterchange"`
	Segments          []SegmentCount `json:"segments" yaml:"segments"`
}

// Summarize tokenizes the envelope and reports its delimiters and segment
// inventory.
func (e *Envelope) Summarize() Summary {
	return Summary{
		Encoding:          e.Encoding,
		ElementSeparator:  fmt.Sprintf("%q", e.Delimiters.Element),
		SegmentTerminator: fmt.Sprintf("%q", e.Delimiters.Segment),
		HasInterchange:    e.HasInterchange,
		Segments:          Inventory(e.Segments()),
	}
}

// Detect decodes raw and determines the document's element separator and
// segment terminator. Documents with an ISA interchange header take their
// delimiters from it; otherwise the first ST transaction-set header is used.
func Detect(raw []byte) (*Envelope, error) {
	text, enc, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	env := &Envelope{Text: text, Encoding: enc}

	if start, sep, ok := findInterchangeHeader(text); ok {
		term, err := interchangeTerminator(text[start:], sep)
		if err != nil {
			return nil, err
		}
		env.Start = start
		env.HasInterchange = true
		env.Delimiters = Delimiters{Element: sep, Segment: term}
		return env, nil
	}

	start, sep, ok := findTransactionSetHeader(text)
	if !ok {
		return nil, formatErrorf("not a valid X12 file: no ISA or ST segment found; make sure you are uploading an 837 claim file")
	}
	env.Start = start
	env.Delimiters = Delimiters{Element: sep, Segment: scanTerminator(text[start:], sep)}
	return env, nil
}

// findInterchangeHeader returns the offset of the first "ISA" (any case)
// followed by a single non-alphanumeric character, and that character. Like
// the ST search it skips matches glued to a preceding letter or digit, which
// keeps a name such as "LISA*" in an envelope-less file from matching.
func findInterchangeHeader(text string) (int, rune, bool) {
	for i := 0; i+3 < len(text); i++ {
		if !strings.EqualFold(text[i:i+3], "ISA") {
			continue
		}
		if i > 0 && isASCIIAlnum(rune(text[i-1])) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(text[i+3:])
		if isAlnum(r) || r == '\n' || r == '\r' || r == utf8.RuneError {
			continue
		}
		return i, r, true
	}
	return 0, 0, false
}

// interchangeTerminator isolates ISA16 and returns the character right after
// it. seg starts at the ISA marker.
func interchangeTerminator(seg string, sep rune) (rune, error) {
	parts := strings.SplitN(seg, string(sep), isaElementCount+1)
	if len(parts) < isaElementCount+1 {
		return 0, formatErrorf("ISA segment does not have %d element separators; the file may be malformed", isaElementCount)
	}

	rest := parts[isaElementCount]
	if utf8.RuneCountInString(rest) < 2 {
		return 0, formatErrorf("cannot determine segment terminator from ISA16; the file may be truncated")
	}
	_, size := utf8.DecodeRuneInString(rest)
	term, _ := utf8.DecodeRuneInString(rest[size:])

	if term == sep || isAlnum(term) {
		return 0, formatErrorf("ISA16 is followed by %q, which cannot be a segment terminator", term)
	}
	return term, nil
}

// findTransactionSetHeader returns the offset of the first "ST" that is not
// preceded by an ASCII letter or digit and is followed by a separator
// character, so "FIRST*" or "BEST*" inside data values never match.
func findTransactionSetHeader(text string) (int, rune, bool) {
	for i := 0; i+2 < len(text); i++ {
		if text[i] != 'S' || text[i+1] != 'T' {
			continue
		}
		if i > 0 && isASCIIAlnum(rune(text[i-1])) {
			continue
		}
		r, _ := utf8.DecodeRuneInString(text[i+2:])
		if isASCIIAlnum(r) || unicode.IsSpace(r) || r == utf8.RuneError {
			continue
		}
		return i, r, true
	}
	return 0, 0, false
}

// scanTerminator walks forward from the ST marker and returns the first
// character that cannot be part of segment content.
func scanTerminator(s string, sep rune) rune {
	for _, r := range s {
		if isAlnum(r) || r == sep {
			continue
		}
		switch r {
		case ' ', '\t', ':', '-':
			continue
		}
		return r
	}
	return DefaultSegmentTerminator
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
