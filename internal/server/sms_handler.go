package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/devineonline/smsbroadcast"
	"github.com/devineonline/smsbroadcast/internal/httputil"
)

type sendBody struct {
	To       string  `json:"to"`
	Message  string  `json:"message"`
	Sender   *string `json:"sender"`
	Ref      string  `json:"ref"`
	MaxSplit int     `json:"max_split"`
}

type sendManyBody struct {
	To       []string `json:"to"`
	Message  string   `json:"message"`
	Sender   *string  `json:"sender"`
	MaxSplit int      `json:"max_split"`
}

type sendResponse struct {
	smsbroadcast.SendResult
	Ref string `json:"ref"`
}

// handleSend handles POST /api/sms/send.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var body sendBody
	if !httputil.DecodeJSON(w, r, &body) {
		return
	}

	ref := body.Ref
	if ref == "" {
		ref = s.newRef()
	}
	opts := append(s.sendOptions(body.Sender, body.MaxSplit), smsbroadcast.WithRef(ref))

	start := time.Now()
	res, err := s.gateway.Send(r.Context(), localNumber(body.To), body.Message, opts...)
	var results []smsbroadcast.SendResult
	if res != nil {
		results = append(results, *res)
	}
	s.recordSend(start, 1, results, err)
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, sendResponse{SendResult: *res, Ref: ref})
}

// handleSendMany handles POST /api/sms/send-many. Per-recipient rejections
// are reported in the results with a 200.
func (s *Server) handleSendMany(w http.ResponseWriter, r *http.Request) {
	var body sendManyBody
	if !httputil.DecodeJSON(w, r, &body) {
		return
	}

	to := make([]string, len(body.To))
	for i, n := range body.To {
		to[i] = localNumber(n)
	}

	start := time.Now()
	results, err := s.gateway.SendMany(r.Context(), to, body.Message, s.sendOptions(body.Sender, body.MaxSplit)...)
	s.recordSend(start, len(to), results, err)
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleBalance handles GET /api/sms/balance.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	balance, err := s.gateway.Balance(r.Context())
	s.metrics.ObserveGateway("balance", time.Since(start))
	if err != nil {
		s.writeGatewayError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]int{"balance": balance})
}

// recordSend updates message metrics for one send call. Requests rejected by
// local validation never reached the gateway and are not counted.
func (s *Server) recordSend(start time.Time, recipients int, results []smsbroadcast.SendResult, err error) {
	var gwErr *smsbroadcast.Error
	if errors.As(err, &gwErr) && gwErr.IsValidation() {
		return
	}
	s.metrics.ObserveGateway("send", time.Since(start))
	if len(results) > 0 {
		s.metrics.CountResults(results...)
		return
	}
	if err != nil {
		s.metrics.CountFailure(recipients)
	}
}

func (s *Server) sendOptions(sender *string, maxSplit int) []smsbroadcast.SendOption {
	if maxSplit == 0 {
		maxSplit = s.cfg.Gateway.MaxSplit
	}
	var opts []smsbroadcast.SendOption
	if maxSplit != 0 {
		opts = append(opts, smsbroadcast.WithMaxSplit(maxSplit))
	}
	if sender != nil {
		opts = append(opts, smsbroadcast.WithSender(*sender))
	}
	return opts
}

// writeGatewayError maps client errors onto HTTP statuses.
func (s *Server) writeGatewayError(w http.ResponseWriter, err error) {
	var gwErr *smsbroadcast.Error
	if !errors.As(err, &gwErr) {
		s.logger.Error("gateway request failed", "error", err)
		httputil.WriteError(w, http.StatusBadGateway, "gateway unavailable")
		return
	}

	status := http.StatusBadGateway
	switch {
	case gwErr.IsValidation():
		status = http.StatusBadRequest
	case errors.Is(err, smsbroadcast.ErrSend):
		status = http.StatusUnprocessableEntity
	default:
		s.logger.Error("gateway error", "error", err)
	}
	httputil.WriteKindError(w, status, gwErr.Kind.String(), gwErr.Message)
}

// localNumber converts international input to the gateway's local form.
// Unconvertible input is passed through so validation reports it.
func localNumber(n string) string {
	if local, err := smsbroadcast.LocalNumber(n); err == nil {
		return local
	}
	return n
}
