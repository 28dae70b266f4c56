package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/atalanta-ac/storefront/internal/domain/checkout"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// writeInternal hides internal failure details from clients and logs them.
func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// stagePath maps a checkout stage to its storefront route.
func stagePath(s checkout.Stage) string {
	return "/" + s.String()
}

// redirectStage answers a precondition violation with a silent corrective
// navigation: 303 plus a Location pointing at the earliest unsatisfied step.
// The body names the step for clients that follow redirects out-of-band.
func redirectStage(w http.ResponseWriter, stage checkout.Stage) {
	w.Header().Set("Location", stagePath(stage))
	writeJSON(w, http.StatusSeeOther, map[string]string{
		"redirect": stagePath(stage),
		"step":     stage.String(),
	})
}
