package cli

import (
	"errors"
	"fmt"
	"net"

	"github.com/devineonline/smsbroadcast"
	"github.com/devineonline/smsbroadcast/internal/config"
)

// Hints returns follow-up suggestions for an error returned by Execute.
func Hints(err error) []string {
	var statusErr *smsbroadcast.StatusError
	var opErr *net.OpError
	switch {
	case errors.Is(err, config.ErrMissingCredentials):
		return []string{
			"smsb config set gateway.username <user>",
			"export SMSB_PASSWORD=<password>",
			"add --dry-run to try a command without credentials",
		}
	case errors.Is(err, smsbroadcast.ErrInvalidNumber):
		return []string{"use a local number such as 0412345678, or +61 412 345 678"}
	case errors.Is(err, smsbroadcast.ErrInvalidSender):
		return []string{"sender ids are 1 to 11 letters or digits: --sender MyBrand"}
	case errors.Is(err, smsbroadcast.ErrInvalidMessage):
		return []string{
			fmt.Sprintf("messages must be 1 to %d characters", smsbroadcast.MaxMessageLength),
			fmt.Sprintf("--max-split accepts 1 to %d", smsbroadcast.MaxSplitLimit),
		}
	case errors.As(err, &statusErr):
		return []string{"check gateway.endpoint; the gateway answered with an HTTP error"}
	case errors.As(err, &opErr) && opErr.Op == "listen":
		return []string{"smsb serve --port <other>   # use a different port"}
	}
	return nil
}
