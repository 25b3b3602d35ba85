package covidstats

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"vicstats-backend/lib/serviceutil"

	"github.com/mazen160/go-random"
)

type queryRequest struct {
	Select Selection `json:"select"`
}

type queryError struct {
	Error string `json:"error"`
}

// NewHandler exposes the query operation over plain JSON HTTP, returning
// the path and handler to mount on a mux. CORS is permissive, there is no
// authentication; the API is public and read-only.
func NewHandler(service Service) (string, http.Handler) {
	return "/v1/query", serviceutil.Cors(http.HandlerFunc(service.handleQuery))
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

func (s Service) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeJson(w, http.StatusMethodNotAllowed, queryError{Error: "use POST"})
		return
	}

	var req queryRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeJson(w, http.StatusBadRequest, queryError{Error: err.Error()})
		return
	}

	requestId, err := random.String(8)
	if err != nil {
		slog.WarnContext(ctx, "failed to generate request id", "err", err)
		requestId = "unknown"
	}
	slog.InfoContext(ctx, "query", "request_id", requestId)

	res, err := s.Query(ctx, req.Select)
	if err != nil {
		slog.ErrorContext(ctx, "query failed", "request_id", requestId, "err", err)
		writeJson(w, http.StatusBadGateway, queryError{Error: err.Error()})
		return
	}

	writeJson(w, http.StatusOK, res)
}
