package interpret

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UnknownVendor is the fallback when no receipt line looks like a
// business name.
const UnknownVendor = "Unknown Vendor"

// The vendor name is almost always printed at the very top of a
// receipt, so only the first few lines are considered.
const vendorLineLimit = 5

// ParseVendor picks the vendor name out of the first lines of receipt
// text. A qualifying line is longer than two characters, does not
// start with a digit (street addresses), and carries no phone-shaped
// token. The result is title-cased.
func ParseVendor(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > vendorLineLimit {
		lines = lines[:vendorLineLimit]
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) <= 2 {
			continue
		}
		if isDigit(line[0]) {
			continue
		}
		if hasPhoneToken(line) {
			continue
		}
		// Casers are stateful, so build one per call to keep
		// ParseVendor safe for concurrent use.
		return cases.Title(language.English).String(line)
	}

	return UnknownVendor
}

// hasPhoneToken reports whether line contains a ###-###-#### group or
// ten consecutive digits.
func hasPhoneToken(line string) bool {
	run := 0
	for i := 0; i < len(line); i++ {
		if isDigit(line[i]) {
			run++
			if run >= 10 {
				return true
			}
		} else {
			run = 0
		}
	}

	for i := 0; i+12 <= len(line); i++ {
		if allDigits(line[i:i+3]) && line[i+3] == '-' &&
			allDigits(line[i+4:i+7]) && line[i+7] == '-' &&
			allDigits(line[i+8:i+12]) {
			return true
		}
	}
	return false
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}
