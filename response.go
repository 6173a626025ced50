package smsbroadcast

import (
	"fmt"
	"strconv"
	"strings"
)

// Response line prefixes. Matching is case-sensitive.
const (
	prefixOK    = "OK:"
	prefixBad   = "BAD:"
	prefixError = "ERROR:"
)

// SendResult is the gateway's verdict for one recipient. Exactly one of SMSRef
// and Error is set.
type SendResult struct {
	Number  string `json:"to"`
	Success bool   `json:"success"`
	SMSRef  string `json:"smsref,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ParseSendResponse decodes a send response body, one record per line, into
// results in line order. An ERROR line fails the whole response.
func ParseSendResponse(body string) ([]SendResult, error) {
	var results []SendResult
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, prefixOK):
			number, ref, ok := splitRecord(line[len(prefixOK):])
			if !ok {
				return nil, unexpectedResponse(line)
			}
			results = append(results, SendResult{Number: number, Success: true, SMSRef: ref})
		case strings.HasPrefix(line, prefixBad):
			number, text, ok := splitRecord(line[len(prefixBad):])
			if !ok {
				return nil, unexpectedResponse(line)
			}
			results = append(results, SendResult{Number: number, Error: text})
		case strings.HasPrefix(line, prefixError):
			return nil, sendFailed("", strings.TrimSpace(line[len(prefixError):]))
		default:
			return nil, unexpectedResponse(line)
		}
	}
	if len(results) == 0 {
		return nil, unexpectedResponse(strings.TrimSpace(body))
	}
	return results, nil
}

// ParseBalanceResponse decodes a balance response body into a credit count.
func ParseBalanceResponse(body string) (int, error) {
	line := strings.TrimSpace(body)
	switch {
	case strings.HasPrefix(line, prefixOK):
		n, err := strconv.Atoi(strings.TrimSpace(line[len(prefixOK):]))
		if err != nil {
			return 0, unexpectedResponse(line)
		}
		return n, nil
	case strings.HasPrefix(line, prefixError):
		return 0, &Error{
			Kind:    KindGateway,
			Message: fmt.Sprintf("Failed to get balance with error `%s`", strings.TrimSpace(line[len(prefixError):])),
		}
	default:
		return 0, unexpectedResponse(line)
	}
}

// splitRecord splits "<number>:<value>" and trims both fields. Both must be non-empty.
func splitRecord(s string) (number, value string, ok bool) {
	number, value, found := strings.Cut(s, ":")
	if !found {
		return "", "", false
	}
	number = strings.TrimSpace(number)
	value = strings.TrimSpace(value)
	if number == "" || value == "" {
		return "", "", false
	}
	return number, value, true
}
