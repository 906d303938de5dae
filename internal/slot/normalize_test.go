package slot

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"plain 24h", "09:00", "09:00"},
		{"24h with seconds", "09:00:00", "09:00"},
		{"24h range", "09:00-10:00", "09:00"},
		{"single digit hour", "9:00", "09:00"},
		{"12h morning", "9:00 AM", "09:00"},
		{"12h afternoon", "2:30 PM", "14:30"},
		{"12h lowercase", "2:30 pm", "14:30"},
		{"12h no space", "11:15am", "11:15"},
		{"12h noon", "12:00 PM", "12:00"},
		{"12h midnight", "12:00 AM", "00:00"},
		{"en dash range", "09:00–10:00", "09:00"},
		{"em dash range", "09:00—10:00", "09:00"},
		{"stray quotes", "\"10:00-11:00\"", "10:00"},
		{"smart quotes", "“10:00”", "10:00"},
		{"non breaking space", "9:00 AM", "09:00"},
		{"extra whitespace", "  14:00   -  15:00 ", "14:00"},
		{"trailing text", "10:00 (walk-ins welcome)", "10:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.token)
			if err != nil {
				t.Fatalf("Normalize(%q) returned error: %v", tt.token, err)
			}
			if got.Start != tt.want {
				t.Errorf("Normalize(%q).Start = %q, want %q", tt.token, got.Start, tt.want)
			}
			if got.Source != tt.token {
				t.Errorf("Normalize(%q).Source = %q, want original token", tt.token, got.Source)
			}
		})
	}
}

func TestNormalizeFailure(t *testing.T) {
	for _, token := range []string{"", "garbage", "morning shift", "25", "-"} {
		_, err := Normalize(token)
		if err == nil {
			t.Errorf("Normalize(%q) expected error, got none", token)
			continue
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Errorf("Normalize(%q) error = %T, want *ParseError", token, err)
		}
	}
}

func TestNormalizeFailureKeepsCleanedText(t *testing.T) {
	_, err := Normalize("“morning”   shift")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if perr.Text != "morning shift" {
		t.Errorf("ParseError.Text = %q, want cleaned text %q", perr.Text, "morning shift")
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		spec string
		want []string
	}{
		{"09:00-10:00", []string{"09:00-10:00"}},
		{"09:00, 10:00; 11:00", []string{"09:00", "10:00", "11:00"}},
		{" 09:00 ,, 10:00 ", []string{"09:00", "10:00"}},
		{";;", nil},
		{"", nil},
	}

	for _, tt := range tests {
		got := Split(tt.spec)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Split(%q) = %v, want %v", tt.spec, got, tt.want)
		}
	}
}
