package handlers

import (
	"net/http"

	"github.com/talkwave-app/talkwave-backend/internal/apperr"
)

// Upload stores an avatar or group image on Cloudinary and returns its URL.
func (a *API) Upload(w http.ResponseWriter, r *http.Request) {
	if a.Uploads == nil {
		writeError(w, apperr.New(apperr.Internal, "image uploads are not available"))
		return
	}

	// 10MB cap on the multipart form
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, apperr.Invalid("failed to parse form"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.Invalid("no file provided"))
		return
	}
	file.Close()

	folder := r.URL.Query().Get("folder")
	if folder == "" {
		folder = "talkwave"
	}

	url, err := a.Uploads.UploadImage(r.Context(), header, folder)
	if err != nil {
		a.Logger.Error("image upload failed", "error", err)
		writeError(w, apperr.ServerError())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}
