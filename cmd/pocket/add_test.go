package main

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  func(time.Time) bool
	}{
		{
			name:  "empty means today",
			input: "",
			want: func(got time.Time) bool {
				return got.Format("2006-01-02") == time.Now().Format("2006-01-02")
			},
		},
		{
			name:  "explicit date",
			input: "2026-08-15",
			want: func(got time.Time) bool {
				return got.Format("2006-01-02") == "2026-08-15"
			},
		},
		{
			name:  "natural language yesterday",
			input: "yesterday",
			want: func(got time.Time) bool {
				return got.Format("2006-01-02") == time.Now().AddDate(0, 0, -1).Format("2006-01-02")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate(tt.input)
			if err != nil {
				t.Fatalf("parseDate(%q) failed: %v", tt.input, err)
			}
			if !tt.want(got) {
				t.Errorf("parseDate(%q) = %v", tt.input, got)
			}
		})
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	if _, err := parseDate("not a date at all xyzzy"); err == nil {
		t.Error("expected error for unparseable date")
	}
}
