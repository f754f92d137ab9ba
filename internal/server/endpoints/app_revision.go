package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/internal/svcctx"
)

// HistoryRevisionEndpoint handles GET /app/history-revision, the counter the
// rendered pages poll to detect changes.
type HistoryRevisionEndpoint struct{}

var _ api.Endpoint = (*HistoryRevisionEndpoint)(nil)

func (e *HistoryRevisionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/app/history-revision", e.handler
}

func (e *HistoryRevisionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]any{"revision": svcctx.AppFrom(r.Context()).Revision()})
}

func (e *HistoryRevisionEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "revision",
		Short: "Show the history revision counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp struct {
				OK       bool   `json:"ok"`
				Revision uint64 `json:"revision"`
			}
			if err := client.Get(cmd.Context(), "/app/history-revision", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
