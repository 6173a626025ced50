package smsbroadcast

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

const (
	// MaxMessageLength is the longest message the gateway accepts, in characters.
	MaxMessageLength = 765
	// DefaultMaxSplit is the number of SMS segments a message may span when
	// the caller does not say otherwise.
	DefaultMaxSplit = 5
	// MaxSplitLimit is the largest max-split value the gateway honours.
	MaxSplitLimit = 10
)

var (
	numberRe = regexp.MustCompile(`^0\d{9}$`)
	senderRe = regexp.MustCompile(`^[A-Za-z0-9]{1,11}$`)
)

// ValidateNumber checks a recipient against the gateway's local mobile format.
func ValidateNumber(number string) error {
	if number == "" || !numberRe.MatchString(number) {
		return invalidNumber(number)
	}
	return nil
}

// ValidateMessage rejects empty messages and messages over MaxMessageLength characters.
func ValidateMessage(message string) error {
	if message == "" {
		return &Error{Kind: KindInvalidMessage, Message: "Message is empty"}
	}
	if n := utf8.RuneCountInString(message); n > MaxMessageLength {
		return &Error{
			Kind:    KindInvalidMessage,
			Message: fmt.Sprintf("Message length `%d` of chars is over maximum length of `%d` chars", n, MaxMessageLength),
		}
	}
	return nil
}

// ValidateSender checks a sender id: 1 to 11 ASCII letters or digits.
func ValidateSender(sender string) error {
	if !senderRe.MatchString(sender) {
		return &Error{
			Kind:    KindInvalidSender,
			Message: fmt.Sprintf("Sender `%s` is invalid", sender),
		}
	}
	return nil
}

// ValidateMaxSplit checks the segment bound is within 1..MaxSplitLimit.
func ValidateMaxSplit(maxSplit int) error {
	if maxSplit < 1 || maxSplit > MaxSplitLimit {
		return &Error{
			Kind:    KindInvalidMessage,
			Message: fmt.Sprintf("Max split `%d` must be between `1` and `%d`", maxSplit, MaxSplitLimit),
		}
	}
	return nil
}

// SendRequest is a fully resolved outbound message.
type SendRequest struct {
	To       []string
	Message  string
	Sender   string
	Ref      string // optional
	MaxSplit int
}

// Validate checks recipients, message, sender and max-split in that order and
// returns the first failure.
func (r *SendRequest) Validate() error {
	if len(r.To) == 0 {
		return invalidNumber("")
	}
	for _, to := range r.To {
		if err := ValidateNumber(to); err != nil {
			return err
		}
	}
	if err := ValidateMessage(r.Message); err != nil {
		return err
	}
	if err := ValidateSender(r.Sender); err != nil {
		return err
	}
	return ValidateMaxSplit(r.MaxSplit)
}
