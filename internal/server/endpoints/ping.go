package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/api"
)

// PingEndpoint handles GET /ping, the liveness probe the rendered pages use.
type PingEndpoint struct{}

var _ api.Endpoint = (*PingEndpoint)(nil)

func (e *PingEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/ping", e.handler
}

func (e *PingEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeOK(w, nil)
}

func (e *PingEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check server liveness",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp struct {
				OK bool `json:"ok"`
			}
			if err := client.Get(cmd.Context(), "/ping", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
