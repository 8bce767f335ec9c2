package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/me/capsched/pkg/model"
)

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil, nil)
}

// respondCreated writes a 201 response with the standard envelope.
// warning carries an informational admission warning, or nil.
func respondCreated(w http.ResponseWriter, reqID string, data, warning any) {
	respondJSON(w, http.StatusCreated, reqID, data, warning, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	respondJSON(w, status, reqID, nil, nil, apiErr)
}

// respondDomainError maps engine error types onto HTTP statuses and the
// structured error envelope.
func respondDomainError(w http.ResponseWriter, reqID string, err error) {
	var admission *model.AdmissionError
	var validation *model.ValidationError
	var conflict *model.ConflictError
	var notFound *model.NotFoundError
	var transition *model.InvalidTransitionError

	switch {
	case errors.As(err, &admission):
		respondError(w, reqID, http.StatusConflict, &model.APIError{
			Code:    model.ErrAdmission,
			Message: admission.Message,
			Reason:  string(admission.Reason),
			Details: map[string]any{
				"agent_id":        admission.AgentID,
				"requested_hours": admission.RequestedHours,
				"available_hours": admission.AvailableHours,
				"active_sessions": admission.ActiveSessions,
			},
		})
	case errors.As(err, &validation):
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: validation.Message,
		})
	case errors.As(err, &conflict):
		respondError(w, reqID, http.StatusConflict, &model.APIError{
			Code:    model.ErrConflict,
			Message: conflict.Error(),
			Details: map[string]any{"conflicts": conflict.Blocks},
		})
	case errors.As(err, &notFound):
		respondError(w, reqID, http.StatusNotFound, &model.APIError{
			Code:    model.ErrNotFound,
			Message: notFound.Error(),
		})
	case errors.As(err, &transition):
		respondError(w, reqID, http.StatusConflict, &model.APIError{
			Code:    model.ErrInvalidTransition,
			Message: transition.Error(),
		})
	default:
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
	}
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data, warning any, apiErr *model.APIError) {
	resp := model.Response{
		RequestID: reqID,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Warning:   warning,
		Error:     apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// decodeBody parses a JSON request body into dst.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &model.ValidationError{Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}
