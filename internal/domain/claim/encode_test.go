package claim

import (
	"bytes"
	"strings"
	"testing"
)

func TestValidFormat(t *testing.T) {
	tests := []struct {
		format string
		want   bool
	}{
		{"json", true},
		{"JSON", true},
		{"yaml", true},
		{"xml", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidFormat(tt.format); got != tt.want {
			t.Errorf("ValidFormat(%q): expected %v, got %v", tt.format, tt.want, got)
		}
	}
}

func TestEncode(t *testing.T) {
	b, err := assembleDoc(t, "ST*837*0001~CLM*C1*25~")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res := b.Sections()

	tests := []struct {
		format string
		prefix string
	}{
		{FormatJSON, "[\n  {\n    \"section\": \"transaction\""},
		{"", "[\n  {\n    \"section\": \"transaction\""},
		{FormatYAML, "- section: transaction\n"},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, res, tt.format); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasPrefix(buf.String(), tt.prefix) {
				t.Errorf("expected output to start with %q, got %q", tt.prefix, buf.String())
			}
		})
	}
}

func TestEncode_UnsupportedFormat(t *testing.T) {
	err := Encode(&bytes.Buffer{}, Result{}, "xml")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `"xml"`) {
		t.Errorf("expected format in error, got %q", err.Error())
	}
}
