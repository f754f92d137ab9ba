package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/internal/svcctx"
)

// OpenHistoryEndpoint handles POST /app/open-history, opening the rendered
// active-log page with the host shell.
type OpenHistoryEndpoint struct{}

var _ api.Endpoint = (*OpenHistoryEndpoint)(nil)

func (e *OpenHistoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/app/open-history", e.handler
}

func (e *OpenHistoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := svcctx.AppFrom(r.Context()).OpenHistoryPage(); err != nil {
		writeAppError(w, err)
		return
	}
	writeOK(w, nil)
}

func (e *OpenHistoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "open",
		Short: "Open the rendered history page",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp struct {
				OK bool `json:"ok"`
			}
			if err := client.Post(cmd.Context(), "/app/open-history", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
