package server

import (
	"net/http"

	"github.com/devineonline/smsbroadcast/internal/httputil"
)

// handleDeliveryReceipt handles GET|POST /api/webhooks/sms/status.
// The gateway retries on any non-2xx, so malformed receipts are logged
// and still answered with 200.
func (s *Server) handleDeliveryReceipt(w http.ResponseWriter, r *http.Request) {
	to := r.FormValue("to")
	ref := r.FormValue("ref")
	smsRef := r.FormValue("smsref")
	status := r.FormValue("status")

	if smsRef == "" || status == "" {
		s.logger.Warn("sms delivery receipt missing fields",
			"to", to, "ref", ref, "smsref", smsRef, "status", status)
	} else {
		s.logger.Info("sms delivery receipt",
			"to", to, "ref", ref, "smsref", smsRef, "status", status)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{})
}
