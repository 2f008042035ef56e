package claim

import (
	"fmt"
	"strings"

	"github.com/ehr/claimview/internal/platform/x12"
)

// transactionLabels names common non-claim transaction sets so a user who
// uploaded the wrong file gets an actionable message.
var transactionLabels = map[string]string{
	"835": "835 Remittance Advice (payment file, not a claim)",
	"270": "270 Eligibility Inquiry",
	"271": "271 Eligibility Response",
	"276": "276 Claim Status Request",
	"277": "277 Claim Status Response",
	"278": "278 Prior Authorization",
	"834": "834 Benefit Enrollment",
}

// TransactionLabel returns a human-readable name for an ST01 code.
func TransactionLabel(code string) string {
	if label, ok := transactionLabels[code]; ok {
		return label
	}
	if code == "" {
		code = "unknown"
	}
	return "transaction type " + code
}

// NoClaimFoundError is returned when a document tokenizes cleanly but holds
// no CLM segment, usually because a different transaction set was uploaded.
type NoClaimFoundError struct {
	TransactionType string
	SegmentIDs      []string
	Delimiters      x12.Delimiters
}

// Diagnostics is the JSON form of a NoClaimFoundError.
type Diagnostics struct {
	TransactionType   string   `json:"transactionType"`
	TransactionLabel  string   `json:"transactionLabel"`
	SegmentIDs        []string `json:"segmentIds"`
	ElementSeparator  string   `json:"elementSeparator"`
	SegmentTerminator string   `json:"segmentTerminator"`
}

// Diagnostics renders the error payload. Delimiters are quoted so control
// characters such as "\n" stay readable.
func (e *NoClaimFoundError) Diagnostics() Diagnostics {
	return Diagnostics{
		TransactionType:   e.TransactionType,
		TransactionLabel:  TransactionLabel(e.TransactionType),
		SegmentIDs:        e.SegmentIDs,
		ElementSeparator:  fmt.Sprintf("%q", e.Delimiters.Element),
		SegmentTerminator: fmt.Sprintf("%q", e.Delimiters.Segment),
	}
}

func (e *NoClaimFoundError) Error() string {
	return fmt.Sprintf(
		"no CLM (claim) segments found in this file. Transaction type detected: %s. "+
			"Segment types present: %s. Detected element separator: %q, segment terminator: %q. "+
			"This parser handles 837P/837I/837D claim files only",
		TransactionLabel(e.TransactionType),
		strings.Join(e.SegmentIDs, ", "),
		e.Delimiters.Element,
		e.Delimiters.Segment,
	)
}

// ParseError wraps an unexpected internal failure during parsing.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unexpected error parsing X12 file: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
