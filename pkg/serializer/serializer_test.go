package serializer

import (
	"bytes"
	"strings"
	"testing"
)

type row struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

type rows []row

func (r rows) Rows() [][]string {
	out := [][]string{{"NAME", "VERSION"}}
	for _, x := range r {
		out = append(out, []string{x.Name, x.Version})
	}
	return out
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatTable, "JSON": FormatJSON, " yaml ": FormatYAML, "table": FormatTable} {
		got, err := ParseFormat(in)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestSerialize(t *testing.T) {
	data := rows{{Name: "Dummy", Version: "1.0.1.0"}}

	tests := []struct {
		format Format
		want   string
	}{
		{FormatJSON, "[\n  {\n    \"name\": \"Dummy\",\n    \"version\": \"1.0.1.0\"\n  }\n]\n"},
		{FormatYAML, "- name: Dummy\n  version: 1.0.1.0\n"},
		{FormatTable, "NAME   VERSION\nDummy  1.0.1.0\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewWriter(tt.format, &buf).Serialize(data); err != nil {
				t.Fatalf("Serialize: %v", err)
			}
			if got := buf.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSerialize_TableNeedsRows(t *testing.T) {
	err := NewWriter(FormatTable, &bytes.Buffer{}).Serialize(map[string]string{"a": "b"})
	if err == nil || !strings.Contains(err.Error(), "table") {
		t.Errorf("got %v, want table error", err)
	}
}
