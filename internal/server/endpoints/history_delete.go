package endpoints

import (
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/internal/svcctx"
)

// DeleteHistoryEndpoint handles POST /delete, removing a logged prompt from
// the active log or whichever archive holds it.
type DeleteHistoryEndpoint struct{}

var _ api.Endpoint = (*DeleteHistoryEndpoint)(nil)

// DeleteHistoryRequest is the request body for POST /delete.
type DeleteHistoryRequest struct {
	HistoryID string `json:"history_id"`
}

func (e *DeleteHistoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/delete", e.handler
}

func (e *DeleteHistoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req DeleteHistoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.HistoryID) == "" {
		writeError(w, http.StatusBadRequest, "history_id is required")
		return
	}

	if err := svcctx.AppFrom(r.Context()).DeleteEntry(req.HistoryID); err != nil {
		writeAppError(w, err)
		return
	}
	writeOK(w, nil)
}

func (e *DeleteHistoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <history-id>",
		Short: "Delete a logged prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp struct {
				OK bool `json:"ok"`
			}
			if err := client.Post(cmd.Context(), "/delete", DeleteHistoryRequest{HistoryID: args[0]}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
