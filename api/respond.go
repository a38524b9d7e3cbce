package api

import (
	"encoding/json"
	"net/http"

	apperrors "medinsight/internal/errors"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.logger.Warn("request failed (%d): %v", status, err)
	s.writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    apperrors.CodeOf(err),
		Message: err.Error(),
	}})
}

// statusForError maps application error codes onto status lines. Anything
// unrecognized is a 500; insufficiency never reaches here because it is
// report data, not an error.
func statusForError(err error) int {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeValidationError, apperrors.CodeInvalidInput:
		return http.StatusBadRequest
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads the request body into v, mapping failures onto the
// invalid-input code so they surface as 400s.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Wrapf(apperrors.WithCode(apperrors.CodeInvalidInput, err), "malformed request body")
	}
	return nil
}
