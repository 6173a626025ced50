package smsbroadcast

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// LocalNumber converts an Australian number written in international or
// formatted national form (for example "+61 412 345 678" or "0412-345-678")
// into the gateway's 10-digit local form. Client methods never call it; the
// caller decides whether to normalize.
func LocalNumber(input string) (string, error) {
	input = strings.TrimSpace(input)
	if numberRe.MatchString(input) {
		return input, nil
	}

	// Only ASCII digits, a single leading '+', and formatting chars.
	for i, r := range input {
		switch {
		case r == '+' && i == 0:
		case r >= '0' && r <= '9', r == ' ', r == '-', r == '(', r == ')', r == '.':
		default:
			return "", invalidNumber(input)
		}
	}

	num, err := phonenumbers.Parse(input, "AU")
	if err != nil {
		return "", invalidNumber(input)
	}
	if !phonenumbers.IsValidNumber(num) || phonenumbers.GetRegionCodeForNumber(num) != "AU" {
		return "", invalidNumber(input)
	}

	local := digitsOnly(phonenumbers.Format(num, phonenumbers.NATIONAL))
	if !numberRe.MatchString(local) {
		return "", invalidNumber(input)
	}
	return local, nil
}

// LocalNumbers applies LocalNumber to each entry, failing on the first invalid one.
func LocalNumbers(inputs []string) ([]string, error) {
	out := make([]string, 0, len(inputs))
	for _, in := range inputs {
		n, err := LocalNumber(in)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
