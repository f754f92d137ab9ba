package endpoints

import (
	"errors"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/internal/history"
	"github.com/ktanaka/promptdeck/internal/svcctx"
)

// HistoryImageEndpoint handles GET /image?path=, serving a stored image by
// its log-relative path.
type HistoryImageEndpoint struct{}

var _ api.Endpoint = (*HistoryImageEndpoint)(nil)

func (e *HistoryImageEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/image", e.handler
}

func (e *HistoryImageEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	imagePath := strings.TrimSpace(r.URL.Query().Get("path"))
	if imagePath == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	state := svcctx.AppFrom(r.Context())
	data, contentType, err := state.ReadImage(imagePath)
	if err != nil {
		if errors.Is(err, history.ErrInvalidImagePath) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (e *HistoryImageEndpoint) Command(_ func() string) *cobra.Command {
	return nil // Binary payload, no CLI surface.
}
