package utils

import "strings"

// NormalizePhone brings a free-form Argentine phone number to +54... form:
// spaces and punctuation are stripped, a 00 prefix becomes +, bare 11...
// local numbers get the +549 mobile prefix. Returns "" when the result has
// fewer than 8 digits.
func NormalizePhone(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}

	s = keepPlusAndDigits(s)

	var out string
	if strings.HasPrefix(s, "+") {
		out = s
	} else {
		digits := keepDigits(s)
		switch {
		case strings.HasPrefix(digits, "549"):
			out = "+" + digits
		case strings.HasPrefix(digits, "54"):
			out = "+" + digits
		case strings.HasPrefix(digits, "11"):
			out = "+549" + digits
		default:
			out = "+" + digits
		}
	}

	if len(keepDigits(out)) < 8 {
		return ""
	}
	return out
}

func keepPlusAndDigits(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= '0' && r <= '9' || r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
