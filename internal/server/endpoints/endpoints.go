// Package endpoints defines every HTTP route of the promptdeck server, each
// doubling as a CLI command against a running instance.
package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/internal/app"
	"github.com/ktanaka/promptdeck/internal/confstore"
	"github.com/ktanaka/promptdeck/internal/history"
)

// All returns all endpoint instances in route-registration order. The UI
// catch-all must stay last.
func All() []api.Endpoint {
	return []api.Endpoint{
		&PingEndpoint{},
		&HistoryImageEndpoint{},
		&DeleteHistoryEndpoint{},
		&UpdateHistoryEndpoint{},
		&UploadHistoryEndpoint{},
		&InitEndpoint{},
		&HistoryRevisionEndpoint{},
		&ComboChangeEndpoint{},
		&FreeConfirmEndpoint{},
		&DeleteChoiceEndpoint{},
		&ResetEndpoint{},
		&CopyEndpoint{},
		&OpenHistoryEndpoint{},
		&UIEndpoint{},
	}
}

// HistoryCommands groups the history log endpoints for the CLI.
func HistoryCommands() []api.Endpoint {
	return []api.Endpoint{
		&DeleteHistoryEndpoint{},
		&UpdateHistoryEndpoint{},
		&UploadHistoryEndpoint{},
		&OpenHistoryEndpoint{},
	}
}

// SnapshotResponse is the envelope carrying the full UI state.
type SnapshotResponse struct {
	OK bool `json:"ok"`
	app.Snapshot
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeOK writes the success envelope, merging extra payload fields in.
func writeOK(w http.ResponseWriter, payload map[string]any) {
	body := map[string]any{"ok": true}
	for key, value := range payload {
		body[key] = value
	}
	writeJSON(w, http.StatusOK, body)
}

// writeSnapshot writes the success envelope carrying the full UI state.
func writeSnapshot(w http.ResponseWriter, snap app.Snapshot) {
	writeJSON(w, http.StatusOK, SnapshotResponse{OK: true, Snapshot: snap})
}

// writeError writes the failure envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"ok": false, "error": msg})
}

// writeAppError maps store errors onto HTTP statuses: validation failures are
// the client's fault, unknown ids are 404, everything else is internal.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, confstore.ErrInvalidItemID),
		errors.Is(err, history.ErrEmptyPrompt),
		errors.Is(err, history.ErrUnsupportedExtension),
		errors.Is(err, history.ErrImageTooLarge),
		errors.Is(err, history.ErrInvalidImagePath):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, confstore.ErrItemNotFound),
		errors.Is(err, history.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON reads a JSON request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
