package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/internal/svcctx"
)

// CopyEndpoint handles POST /app/copy: clipboard write plus history append,
// debounced against rapid identical copies.
type CopyEndpoint struct{}

var _ api.Endpoint = (*CopyEndpoint)(nil)

// CopyRequest is the request body for POST /app/copy.
type CopyRequest struct {
	Prompt string `json:"prompt"`
}

func (e *CopyEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/app/copy", e.handler
}

func (e *CopyEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req CopyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	skipped, err := svcctx.AppFrom(r.Context()).Copy(req.Prompt)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeOK(w, map[string]any{"skipped": skipped})
}

func (e *CopyEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "copy <prompt>",
		Short: "Copy a prompt to the clipboard and log it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp struct {
				OK      bool `json:"ok"`
				Skipped bool `json:"skipped"`
			}
			if err := client.Post(cmd.Context(), "/app/copy", CopyRequest{Prompt: args[0]}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
