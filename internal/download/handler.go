package download

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/anydownloader/service/internal/response"
)

// Handler holds HTTP handlers for the download pipeline.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler creates a new download Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

type downloadRequest struct {
	URL string `json:"url" example:"https://www.youtube.com/watch?v=dQw4w9WgXcQ"`
}

// DownloadAndUpload godoc
//
//	@Summary		Download media and upload it to storage
//	@Description	Fetches the media at the given URL with yt-dlp, uploads the file to the configured bucket, and returns a time-limited authenticated download link. The temp file is always deleted before the response is sent. Error kinds: InputError (400), FetchError/UploadError/LinkError (502), InternalError (500).
//	@Tags			download
//	@Accept			json
//	@Produce		json
//	@Param			request	body		downloadRequest	true	"Media URL"
//	@Success		200		{object}	response.Envelope{data=Result}
//	@Failure		400		{object}	response.Envelope
//	@Failure		502		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/api/download-and-upload [post]
func (h *Handler) DownloadAndUpload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Var(req.URL, "required,url"); err != nil {
		response.BadRequest(w, "url must be a well-formed absolute URL")
		return
	}

	result, err := h.svc.Run(r.Context(), req.URL)
	if err != nil {
		h.fail(w, err)
		return
	}

	log.Printf("pipeline: uploaded %s", result)
	response.OK(w, result)
}

// DebugStorage godoc
//
//	@Summary		Probe storage credentials
//	@Description	Uploads a tiny probe object and returns a short-lived link for it, verifying bucket credentials without a real download. Not registered in production.
//	@Tags			debug
//	@Produce		json
//	@Success		200	{object}	response.Envelope{data=ProbeResult}
//	@Failure		502	{object}	response.Envelope
//	@Router			/debug/storage [post]
func (h *Handler) DebugStorage(w http.ResponseWriter, r *http.Request) {
	probe, err := h.svc.ProbeStorage(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	response.OK(w, probe)
}

// fail converts a pipeline error to its JSON error response. Internal faults
// are logged but never leak detail to the caller.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	kind := Classify(err)
	if kind == KindInternal {
		log.Printf("pipeline: internal error: %v", err)
		response.InternalError(w)
		return
	}
	response.Fail(w, kind.HTTPStatus(), string(kind), err.Error())
}
