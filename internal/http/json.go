package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/target/prestataires-ui/internal/errors"
)

// maxJSONBody bounds request bodies accepted by DecodeJSON.
const maxJSONBody = 1 << 20

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	body := map[string]string{"error": p.ErrCode}
	if p.Err != nil {
		body["message"] = p.Err.Error()
	}
	WriteJSON(w, p.Code, body)
}

// WriteAppError maps an application error to its HTTP status and writes it as JSON.
// Internal errors are reported with a generic message.
func WriteAppError(w http.ResponseWriter, err error) {
	code := statusForError(err)
	msg := apperrors.PublicMessage(err, http.StatusText(code))
	if code >= http.StatusInternalServerError && !apperrors.IsUnavailable(err) {
		msg = http.StatusText(code)
	}
	WriteError(w, ErrorParams{Code: code, ErrCode: errCodeFor(err), Err: errors.New(msg)})
}

func statusForError(err error) int {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeConflict:
		return http.StatusConflict
	case apperrors.ErrCodeValidation, apperrors.ErrCodeForeignKey:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errCodeFor(err error) string {
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
	}
	return string(apperrors.ErrCodeInternal)
}
