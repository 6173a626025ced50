package smsbroadcast

import (
	"strings"

	"github.com/google/uuid"
)

// RefLength is the length of references produced by NewRef.
const RefLength = 20

// NewRef returns a random reference id for WithRef: the first RefLength hex
// digits of a v4 UUID.
func NewRef() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:RefLength]
}
