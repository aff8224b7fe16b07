package interpret

import (
	"strconv"
	"strings"
	"time"
)

// dateMatcher is one named strategy for locating a date. Matchers run
// in order and the first valid calendar date found wins.
type dateMatcher struct {
	name string
	find func(text string) (time.Time, bool)
}

var dateMatchers = []dateMatcher{
	{"numeric-mdy", findNumericMDY},
	{"numeric-ymd", findNumericYMD},
	{"month-name", findMonthName},
}

// ParseDate extracts the first valid calendar date from receipt text,
// trying the matcher strategies in order. Unparseable text falls back
// to the current date so the caller never has to handle a missing
// date.
func (in *Interpreter) ParseDate(text string) string {
	for _, m := range dateMatchers {
		if t, ok := m.find(text); ok {
			return t.Format(dateLayout)
		}
	}
	return in.timeSource.Now().Format(dateLayout)
}

// digitRun is a maximal run of consecutive digits in the text.
type digitRun struct {
	start, end int // [start, end)
}

func digitRuns(text string) []digitRun {
	var runs []digitRun
	for i := 0; i < len(text); {
		if !isDigit(text[i]) {
			i++
			continue
		}
		start := i
		for i < len(text) && isDigit(text[i]) {
			i++
		}
		runs = append(runs, digitRun{start, i})
	}
	return runs
}

// dateSep reports whether exactly one "/" or "-" sits between two runs.
func dateSep(text string, end, start int) bool {
	return start == end+1 && (text[end] == '/' || text[end] == '-')
}

// findNumericMDY matches M/D/Y and M-D-Y with a 2-4 digit year. Years
// with exactly two digits expand via the pivot: <50 means 2000+yy,
// otherwise 1900+yy.
func findNumericMDY(text string) (time.Time, bool) {
	runs := digitRuns(text)
	for i := 0; i+2 < len(runs); i++ {
		r1, r2, r3 := runs[i], runs[i+1], runs[i+2]
		if !dateSep(text, r1.end, r2.start) || !dateSep(text, r2.end, r3.start) {
			continue
		}
		if r2.end-r2.start > 2 {
			continue
		}
		// A longer first run still matches on its last two digits.
		g1 := text[maxInt(r1.start, r1.end-2):r1.end]
		yearTok := text[r3.start:minInt(r3.end, r3.start+4)]
		if len(yearTok) < 2 {
			continue
		}
		month, _ := strconv.Atoi(g1)
		day, _ := strconv.Atoi(text[r2.start:r2.end])
		if t, ok := buildDate(expandYear(yearTok), month, day); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// findNumericYMD matches Y/M/D and Y-M-D with a 4-digit year first.
func findNumericYMD(text string) (time.Time, bool) {
	runs := digitRuns(text)
	for i := 0; i+2 < len(runs); i++ {
		r1, r2, r3 := runs[i], runs[i+1], runs[i+2]
		if !dateSep(text, r1.end, r2.start) || !dateSep(text, r2.end, r3.start) {
			continue
		}
		if r1.end-r1.start < 4 || r2.end-r2.start > 2 {
			continue
		}
		year, _ := strconv.Atoi(text[r1.end-4 : r1.end])
		month, _ := strconv.Atoi(text[r2.start:r2.end])
		day, _ := strconv.Atoi(text[r3.start:minInt(r3.end, r3.start+2)])
		if t, ok := buildDate(year, month, day); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// findMonthName matches "Month D, Y" with the month written out
// (full name or three-letter abbreviation).
func findMonthName(text string) (time.Time, bool) {
	for i := 0; i < len(text); i++ {
		if !isLetter(text[i]) || (i > 0 && isLetter(text[i-1])) {
			continue
		}
		end := i
		for end < len(text) && isLetter(text[end]) {
			end++
		}
		month, ok := monthFromName(text[i:end])
		if !ok {
			continue
		}
		j := end
		if j >= len(text) || !isSpace(text[j]) {
			continue
		}
		j = skipSpace(text, j)
		dayStart := j
		for j < len(text) && isDigit(text[j]) {
			j++
		}
		if j == dayStart || j-dayStart > 2 {
			continue
		}
		day, _ := strconv.Atoi(text[dayStart:j])
		if j < len(text) && text[j] == ',' {
			j++
		}
		if j >= len(text) || !isSpace(text[j]) {
			continue
		}
		j = skipSpace(text, j)
		yearStart := j
		for j < len(text) && isDigit(text[j]) {
			j++
		}
		yearTok := text[yearStart:minInt(j, yearStart+4)]
		if len(yearTok) < 2 {
			continue
		}
		if t, ok := buildDate(expandYear(yearTok), int(month), day); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// expandYear turns a 2-4 digit year token into a full year. Only the
// exactly-two-digit form gets the century pivot.
func expandYear(tok string) int {
	year, _ := strconv.Atoi(tok)
	if len(tok) == 2 {
		if year < 50 {
			return 2000 + year
		}
		return 1900 + year
	}
	return year
}

// buildDate constructs a date and verifies it is a real calendar day;
// time.Date silently normalizes Feb 30 and friends, which must count
// as a failed match here.
func buildDate(year, month, day int) (time.Time, bool) {
	if year < 1 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

func monthFromName(name string) (time.Month, bool) {
	if len(name) < 3 || len(name) > 9 {
		return 0, false
	}
	name = strings.ToLower(name)
	for m := time.January; m <= time.December; m++ {
		full := strings.ToLower(m.String())
		if name == full || name == full[:3] {
			return m, true
		}
	}
	return 0, false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', '\v':
		return true
	}
	return false
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
