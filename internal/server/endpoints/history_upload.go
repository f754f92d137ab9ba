package endpoints

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ktanaka/promptdeck/internal/api"
	"github.com/ktanaka/promptdeck/internal/history"
	"github.com/ktanaka/promptdeck/internal/svcctx"
)

// UploadHistoryEndpoint handles POST /upload, attaching an image to a logged
// prompt via a multipart form with "history_id" and "file" parts.
type UploadHistoryEndpoint struct{}

var _ api.Endpoint = (*UploadHistoryEndpoint)(nil)

func (e *UploadHistoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/upload", e.handler
}

func (e *UploadHistoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(history.MaxImageBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	historyID := strings.TrimSpace(r.FormValue("history_id"))
	if historyID == "" {
		writeError(w, http.StatusBadRequest, "history_id is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file")
		return
	}
	if len(content) == 0 {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}

	fileName := header.Filename
	if fileName == "" {
		fileName = "upload.bin"
	}

	imagePath, err := svcctx.AppFrom(r.Context()).UploadImage(historyID, fileName, content)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeOK(w, map[string]any{"image_path": imagePath})
}

func (e *UploadHistoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <history-id> <image-file>",
		Short: "Attach an image to a logged prompt",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			client := api.NewClient(getServerURL())
			var resp struct {
				OK        bool   `json:"ok"`
				ImagePath string `json:"image_path"`
			}
			fields := map[string]string{"history_id": args[0]}
			if err := client.Upload(cmd.Context(), "/upload", fields, filepath.Base(args[1]), content, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
