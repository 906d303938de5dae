package slot

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Slot is a single bookable opening. Start is the canonical 24-hour
// "HH:MM" start time used as the comparison key for booking and
// de-duplication; Source keeps the original display text the doctor
// configured for the slot.
type Slot struct {
	Start  string
	Source string
}

// ParseError reports a slot token that could not be reduced to a start
// time. Callers skip the offending token; one corrupt entry must not
// disable a doctor's remaining valid slots.
type ParseError struct {
	Text string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable slot text %q", e.Text)
}

var (
	// timePattern finds the first thing that looks like a clock time,
	// with optional seconds and optional AM/PM suffix.
	timePattern = regexp.MustCompile(`\d{1,2}:\d{2}(?::\d{2})?(?:\s*[AaPp][Mm])?`)

	whitespaceRun = regexp.MustCompile(`\s+`)

	// Doctor-entered slot text arrives with unicode dashes, smart quotes
	// and odd space characters. All of them collapse to plain ASCII
	// before any parsing happens.
	punctCleaner = strings.NewReplacer(
		"–", "-", // en dash
		"—", "-", // em dash
		"−", "-", // minus sign
		" ", " ", // no-break space
		" ", " ", // narrow no-break space
		" ", " ", // thin space
		"\"", "",
		"'", "",
		"‘", "",
		"’", "",
		"“", "",
		"”", "",
		"`", "",
	)
)

// Layouts tried in order; the first one that parses wins.
var startLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04PM",
}

// Split breaks a raw availability entry into individual slot tokens.
// A single configured string may describe several slots joined by
// commas or semicolons.
func Split(spec string) []string {
	parts := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ';'
	})

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if token := strings.TrimSpace(p); token != "" {
			out = append(out, token)
		}
	}
	return out
}

// Normalize reduces one slot token to its canonical "HH:MM" start time.
// When the token carries a range ("09:00-10:00") only the part before
// the first hyphen counts; the end time is informational, appointment
// length is fixed elsewhere.
func Normalize(token string) (Slot, error) {
	cleaned := clean(token)

	head := cleaned
	if i := strings.IndexByte(cleaned, '-'); i >= 0 {
		head = strings.TrimSpace(cleaned[:i])
	}

	match := timePattern.FindString(head)
	if match == "" {
		return Slot{}, &ParseError{Text: cleaned}
	}

	candidate := strings.ToUpper(strings.TrimSpace(match))
	for _, layout := range startLayouts {
		t, err := time.Parse(layout, candidate)
		if err == nil {
			return Slot{Start: t.Format("15:04"), Source: token}, nil
		}
	}

	return Slot{}, &ParseError{Text: cleaned}
}

func clean(s string) string {
	s = punctCleaner.Replace(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
