package endpoints

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/internal/svcctx"
)

// ComboChangeEndpoint handles POST /app/combo-change, setting an item's
// selected choice.
type ComboChangeEndpoint struct{}

var _ api.Endpoint = (*ComboChangeEndpoint)(nil)

// ComboChangeRequest is the request body for POST /app/combo-change.
type ComboChangeRequest struct {
	ItemID   string `json:"item_id"`
	Selected string `json:"selected"`
}

func (e *ComboChangeEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/app/combo-change", e.handler
}

func (e *ComboChangeEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req ComboChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := svcctx.AppFrom(r.Context()).ChangeSelection(req.ItemID, req.Selected)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSnapshot(w, snap)
}

func (e *ComboChangeEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "select <item-id> <choice>",
		Short: "Select a choice for an item (section:key)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SnapshotResponse
			req := ComboChangeRequest{ItemID: args[0], Selected: args[1]}
			if err := client.Post(cmd.Context(), "/app/combo-change", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// FreeConfirmEndpoint handles POST /app/free-confirm, confirming free text
// for an item.
type FreeConfirmEndpoint struct{}

var _ api.Endpoint = (*FreeConfirmEndpoint)(nil)

// FreeConfirmRequest is the request body for POST /app/free-confirm.
type FreeConfirmRequest struct {
	ItemID   string `json:"item_id"`
	Selected string `json:"selected"`
	Value    string `json:"value"`
}

func (e *FreeConfirmEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/app/free-confirm", e.handler
}

func (e *FreeConfirmEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req FreeConfirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := svcctx.AppFrom(r.Context()).ConfirmFreeText(req.ItemID, req.Selected, req.Value)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSnapshot(w, snap)
}

func (e *FreeConfirmEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <item-id> <text>",
		Short: "Confirm free text for an item, keeping it as a choice",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SnapshotResponse
			req := FreeConfirmRequest{ItemID: args[0], Value: args[1]}
			if err := client.Post(cmd.Context(), "/app/free-confirm", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// DeleteChoiceEndpoint handles POST /app/delete-choice, removing the selected
// choice from an item's list.
type DeleteChoiceEndpoint struct{}

var _ api.Endpoint = (*DeleteChoiceEndpoint)(nil)

// DeleteChoiceRequest is the request body for POST /app/delete-choice.
type DeleteChoiceRequest struct {
	ItemID   string `json:"item_id"`
	Selected string `json:"selected"`
}

func (e *DeleteChoiceEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/app/delete-choice", e.handler
}

func (e *DeleteChoiceEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	var req DeleteChoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := svcctx.AppFrom(r.Context()).DeleteChoice(req.ItemID, req.Selected)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSnapshot(w, snap)
}

func (e *DeleteChoiceEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-choice <item-id> <choice>",
		Short: "Remove a choice from an item's list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SnapshotResponse
			req := DeleteChoiceRequest{ItemID: args[0], Selected: args[1]}
			if err := client.Post(cmd.Context(), "/app/delete-choice", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ResetEndpoint handles POST /app/reset, clearing all selections.
type ResetEndpoint struct{}

var _ api.Endpoint = (*ResetEndpoint)(nil)

func (e *ResetEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/app/reset", e.handler
}

func (e *ResetEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	snap, err := svcctx.AppFrom(r.Context()).Reset()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeSnapshot(w, snap)
}

func (e *ResetEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear all selections",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp SnapshotResponse
			if err := client.Post(cmd.Context(), "/app/reset", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
