package download

import (
	"errors"
	"net/http"
)

// Kind classifies a pipeline failure by the stage that produced it. Kinds are
// part of the API contract: clients branch on them and the HTTP status is a
// pure function of the kind.
type Kind string

const (
	KindInput    Kind = "InputError"
	KindFetch    Kind = "FetchError"
	KindUpload   Kind = "UploadError"
	KindLink     Kind = "LinkError"
	KindInternal Kind = "InternalError"
)

// HTTPStatus maps a kind to its response status. Fetch, upload, and link
// failures are all upstream problems; LinkError keeps its own kind so
// operators can tell "uploaded but link failed" apart from a failed upload.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInput:
		return http.StatusBadRequest
	case KindFetch, KindUpload, KindLink:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// StageError wraps a stage failure with its classification.
type StageError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Classify returns the kind of a pipeline error, defaulting to InternalError
// for anything that escaped classification.
func Classify(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}
