package api

import (
	"net/http"

	"github.com/DamianAcri/menulink-sub001/internal/auth"
	"github.com/DamianAcri/menulink-sub001/internal/dispatch"
)

type sweepResponse struct {
	Result dispatch.SweepResult `json:"result"`
	Error  string               `json:"error,omitempty"`
}

// handleCronDispatch runs one email sweep for an external scheduler.
// A sweep that processed rows answers 200 even if some rows hit store
// errors; those are reported in "error" and retried on the next call.
func (s *Server) handleCronDispatch(w http.ResponseWriter, r *http.Request) {
	if !auth.BearerMatches(r.Header.Get("Authorization"), s.cronSecret) {
		s.writeError(w, r, errUnauthorized)
		return
	}
	res, err := s.sweeper.Sweep(r.Context())
	if err != nil && res.Scanned == 0 {
		s.writeError(w, r, err)
		return
	}
	out := sweepResponse{Result: res}
	if err != nil {
		s.logger.Warn("cron sweep finished with errors", "error", err)
		out.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, out)
}
