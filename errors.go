package smsbroadcast

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind uint8

const (
	// KindGateway covers account-level gateway errors outside a send and
	// responses the parser does not recognize.
	KindGateway Kind = iota
	KindInvalidNumber
	KindInvalidMessage
	KindInvalidSender
	// KindSend means the gateway rejected a recipient or the whole send.
	KindSend
)

func (k Kind) String() string {
	switch k {
	case KindInvalidNumber:
		return "invalid_number"
	case KindInvalidMessage:
		return "invalid_message"
	case KindInvalidSender:
		return "invalid_sender"
	case KindSend:
		return "send"
	default:
		return "gateway"
	}
}

// Sentinels for errors.Is. Every *Error matches ErrGateway plus the sentinel
// for its own Kind.
var (
	ErrGateway        = errors.New("smsbroadcast: gateway error")
	ErrInvalidNumber  = errors.New("smsbroadcast: invalid number")
	ErrInvalidMessage = errors.New("smsbroadcast: invalid message")
	ErrInvalidSender  = errors.New("smsbroadcast: invalid sender")
	ErrSend           = errors.New("smsbroadcast: send failed")
)

// Error is returned for validation failures and gateway-reported failures.
// Transport failures are never converted to *Error.
type Error struct {
	Kind Kind
	// Number is the recipient the error concerns, empty for account-level errors.
	Number  string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the kind sentinel and ErrGateway to errors.Is.
func (e *Error) Unwrap() []error {
	if e.Kind == KindGateway {
		return []error{ErrGateway}
	}
	return []error{kindSentinel(e.Kind), ErrGateway}
}

// IsValidation reports whether the error was raised before any request was made.
func (e *Error) IsValidation() bool {
	switch e.Kind {
	case KindInvalidNumber, KindInvalidMessage, KindInvalidSender:
		return true
	}
	return false
}

func kindSentinel(k Kind) error {
	switch k {
	case KindInvalidNumber:
		return ErrInvalidNumber
	case KindInvalidMessage:
		return ErrInvalidMessage
	case KindInvalidSender:
		return ErrInvalidSender
	case KindSend:
		return ErrSend
	default:
		return ErrGateway
	}
}

func invalidNumber(number string) *Error {
	return &Error{
		Kind:    KindInvalidNumber,
		Number:  number,
		Message: fmt.Sprintf("Message to number `%s` is invalid", number),
	}
}

func sendFailed(number, text string) *Error {
	return &Error{
		Kind:    KindSend,
		Number:  number,
		Message: fmt.Sprintf("Failed to send message to `%s` with error `%s`", number, text),
	}
}

func unexpectedResponse(body string) *Error {
	return &Error{
		Kind:    KindGateway,
		Message: fmt.Sprintf("Unexpected response `%s` from gateway", body),
	}
}
