// Package ndc normalizes National Drug Codes to the 11-digit 5-4-2 format
// used throughout the API and the database.
package ndc

import (
	"fmt"
	"strings"
)

// Normalize converts any common NDC representation (10 or 11 digits, with or
// without dashes) into the canonical XXXXX-XXXX-XX form.
//
// 10-digit codes are padded according to their dash layout: 4-4-2 pads the
// labeler, 5-3-2 pads the product, 5-4-1 pads the package segment. Dashless
// 10-digit codes are assumed to be missing a leading labeler zero, which is
// the dominant convention in wholesaler files.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("ndc is empty")
	}

	segments := strings.Split(raw, "-")
	digits := strings.Map(keepDigit, raw)

	switch {
	case len(segments) == 3:
		labeler, product, pkg := segments[0], segments[1], segments[2]
		for _, s := range segments {
			if s == "" || strings.Map(keepDigit, s) != s {
				return "", fmt.Errorf("invalid ndc %q", raw)
			}
		}
		switch {
		case len(labeler) == 4 && len(product) == 4 && len(pkg) == 2:
			labeler = "0" + labeler
		case len(labeler) == 5 && len(product) == 3 && len(pkg) == 2:
			product = "0" + product
		case len(labeler) == 5 && len(product) == 4 && len(pkg) == 1:
			pkg = "0" + pkg
		case len(labeler) == 5 && len(product) == 4 && len(pkg) == 2:
			// already canonical
		default:
			return "", fmt.Errorf("invalid ndc segment lengths in %q", raw)
		}
		return labeler + "-" + product + "-" + pkg, nil

	case len(segments) == 1:
		if digits != raw {
			return "", fmt.Errorf("invalid ndc %q", raw)
		}
		switch len(digits) {
		case 11:
			return digits[:5] + "-" + digits[5:9] + "-" + digits[9:], nil
		case 10:
			digits = "0" + digits
			return digits[:5] + "-" + digits[5:9] + "-" + digits[9:], nil
		default:
			return "", fmt.Errorf("ndc must have 10 or 11 digits, got %d", len(digits))
		}

	default:
		return "", fmt.Errorf("invalid ndc %q", raw)
	}
}

// IsValid reports whether raw normalizes to a canonical NDC.
func IsValid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

func keepDigit(r rune) rune {
	if r >= '0' && r <= '9' {
		return r
	}
	return -1
}
