package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/internal/svcctx"
)

// InitEndpoint handles GET /app/init, the UI's initial state load.
type InitEndpoint struct{}

var _ api.Endpoint = (*InitEndpoint)(nil)

func (e *InitEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/app/init", e.handler
}

func (e *InitEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(w, svcctx.AppFrom(r.Context()).Snapshot())
}

func (e *InitEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Show the current UI state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SnapshotResponse
			if err := client.Get(cmd.Context(), "/app/init", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
