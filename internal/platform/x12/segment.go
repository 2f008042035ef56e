package x12

import "strings"

// Segment is one X12 record. Elements[0] is the segment ID; data elements
// start at index 1, matching X12 reference numbering (NM103 = Elements[3]).
type Segment struct {
	ID       string
	Elements []string
}

// Element returns the raw element at index, or "" when the segment is
// shorter than that. Optional trailing elements are routinely omitted.
func (s Segment) Element(index int) string {
	if index < 0 || index >= len(s.Elements) {
		return ""
	}
	return s.Elements[index]
}

// Value returns the cleaned element at index.
func (s Segment) Value(index int) string {
	return CleanValue(s.Element(index))
}

// Tokenize splits text from start onward into segments. Empty chunks and
// chunks whose ID is blank are dropped; order is preserved.
func Tokenize(text string, start int, d Delimiters) []Segment {
	if start < 0 || start > len(text) {
		return nil
	}

	chunks := strings.Split(text[start:], string(d.Segment))
	segments := make([]Segment, 0, len(chunks))
	sep := string(d.Element)

	for _, chunk := range chunks {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		elements := strings.Split(chunk, sep)
		id := strings.ToUpper(strings.TrimSpace(elements[0]))
		if id == "" {
			continue
		}
		elements[0] = id
		segments = append(segments, Segment{ID: id, Elements: elements})
	}

	return segments
}

// SegmentCount is one row of a segment inventory.
type SegmentCount struct {
	ID    string `json:"id" yaml:"id"`
	Count int    `json:"count" yaml:"count"`
}

// Inventory counts segments per ID in first-seen order.
func Inventory(segs []Segment) []SegmentCount {
	index := make(map[string]int)
	var out []SegmentCount
	for _, s := range segs {
		i, ok := index[s.ID]
		if !ok {
			i = len(out)
			index[s.ID] = i
			out = append(out, SegmentCount{ID: s.ID})
		}
		out[i].Count++
	}
	return out
}
