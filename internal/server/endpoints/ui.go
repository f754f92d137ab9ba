package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/web"
)

// UIEndpoint serves the embedded single-page UI on GET /.
type UIEndpoint struct{}

var _ api.Endpoint = (*UIEndpoint)(nil)

func (e *UIEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/{$}", e.handler
}

func (e *UIEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	page, err := web.IndexHTML()
	if err != nil {
		http.Error(w, "UI not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (e *UIEndpoint) Command(_ func() string) *cobra.Command {
	return nil // No CLI command for the UI page.
}
