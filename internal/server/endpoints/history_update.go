package endpoints

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/internal/svcctx"
)

// UpdateHistoryEndpoint handles POST /update, replacing a logged prompt's
// text in place.
type UpdateHistoryEndpoint struct{}

var _ api.Endpoint = (*UpdateHistoryEndpoint)(nil)

// UpdateHistoryRequest is the request body for POST /update.
type UpdateHistoryRequest struct {
	HistoryID string `json:"history_id"`
	Prompt    string `json:"prompt"`
}

func (e *UpdateHistoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/update", e.handler
}

func (e *UpdateHistoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req UpdateHistoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.HistoryID) == "" {
		writeError(w, http.StatusBadRequest, "history_id is required")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	updated, err := svcctx.AppFrom(r.Context()).UpdateEntry(req.HistoryID, req.Prompt)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeOK(w, map[string]any{"prompt": updated})
}

func (e *UpdateHistoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "update <history-id> <prompt>",
		Short: "Overwrite a logged prompt's text",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp struct {
				OK     bool   `json:"ok"`
				Prompt string `json:"prompt"`
			}
			req := UpdateHistoryRequest{HistoryID: args[0], Prompt: args[1]}
			if err := client.Post(cmd.Context(), "/update", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
