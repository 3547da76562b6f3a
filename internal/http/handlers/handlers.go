// Package handlers holds what every HTTP handler package shares: decoding,
// validation, path parameters, the session and the error-to-status mapping.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/princekumarofficial/familybook/internal/playback"
	"github.com/princekumarofficial/familybook/internal/services/access"
	"github.com/princekumarofficial/familybook/internal/services/auth"
	mediaService "github.com/princekumarofficial/familybook/internal/services/media"
	"github.com/princekumarofficial/familybook/internal/services/upload"
	"github.com/princekumarofficial/familybook/internal/storage"
	"github.com/princekumarofficial/familybook/internal/types/media"
	"github.com/princekumarofficial/familybook/internal/utils/response"
)

var validate = validator.New()

// ErrUnauthenticated is returned when a protected handler runs without a
// session in its context.
var ErrUnauthenticated = errors.New("user not authenticated")

// statusFor maps a sentinel error to its HTTP status. Zero means unknown.
func statusFor(err error) int {
	switch {
	case errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, mediaService.ErrContentType),
		errors.Is(err, mediaService.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, mediaService.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrUnauthorized),
		errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrForbidden),
		errors.Is(err, access.ErrNotMember),
		errors.Is(err, playback.ErrNotAuthor):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, storage.ErrAlreadyExists):
		return http.StatusConflict
	}
	return 0
}

// WriteError writes err with the status of the first sentinel it wraps.
// Anything unknown is logged and reported as a 500 with msg.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error, msg string) {
	if status := statusFor(err); status != 0 {
		response.WriteJSON(w, status, response.GeneralError(err))
		return
	}
	logger.Error(msg, zap.Error(err))
	response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New(msg)))
}

// BadRequest writes a 400 with a plain message.
func BadRequest(w http.ResponseWriter, msg string) {
	response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New(msg)))
}

// Decode reads a JSON body into dst and validates it. On failure the 400
// has already been written and false is returned.
func Decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		BadRequest(w, "request body cannot be empty")
		return false
	} else if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(ve))
			return false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

// PathID returns the chi URL parameter name. Row ids are serial integers, so
// anything else is rejected before it reaches Postgres.
func PathID(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err != nil || n <= 0 {
		return "", fmt.Errorf("%s must be a positive integer", name)
	}
	return raw, nil
}

// Session returns the caller's session or writes a 401.
func Session(w http.ResponseWriter, r *http.Request) (auth.Session, bool) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		response.WriteJSON(w, http.StatusUnauthorized, response.GeneralError(ErrUnauthenticated))
		return auth.Session{}, false
	}
	return session, true
}

// multipartMemory is how much of a form stays in memory before parts spill
// to temporary files.
const multipartMemory = 32 << 20

// MultipartFiles parses a multipart body and returns the files sent under
// field, in the order the client sent them. The body is capped at maxBody; a
// larger one fails with media.ErrTooLarge instead of being spooled to disk.
func MultipartFiles(w http.ResponseWriter, r *http.Request, field string, maxBody int64) ([]media.File, error) {
	memory := int64(multipartMemory)
	if maxBody > 0 {
		if r.ContentLength > maxBody {
			return nil, fmt.Errorf("%w: request body over %d bytes", mediaService.ErrTooLarge, maxBody)
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		memory = min(memory, maxBody)
	}

	if err := r.ParseMultipartForm(memory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, fmt.Errorf("%w: request body over %d bytes", mediaService.ErrTooLarge, maxBody)
		}
		return nil, fmt.Errorf("parse multipart form: %w", err)
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, fmt.Errorf("no files under %q", field)
	}

	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, fileFromHeader(fh))
	}
	return files, nil
}

// WriteFormError reports a body MultipartFiles refused: 413 when it was too
// large, 400 otherwise.
func WriteFormError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, mediaService.ErrTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	response.WriteJSON(w, status, response.GeneralError(err))
}

func fileFromHeader(fh *multipart.FileHeader) media.File {
	return media.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (media.ReadSeekCloser, error) {
			return fh.Open()
		},
	}
}

// WriteUploadError reports a failed batch. Files stored before the failure
// are returned next to the error so the client can show them.
func WriteUploadError(w http.ResponseWriter, logger *zap.Logger, results []media.UploadResult, err error) {
	status := statusFor(err)
	if status == 0 {
		status = http.StatusInternalServerError
		var fe *upload.FileError
		if errors.As(err, &fe) && fe.Stage == upload.StageStore {
			status = http.StatusBadGateway
		}
		logger.Error("upload failed", zap.Int("stored", len(results)), zap.Error(err))
	}

	resp := response.GeneralError(err)
	if len(results) > 0 {
		resp.Data = results
	}
	response.WriteJSON(w, status, resp)
}
