package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/goliatone/go-editorial/internal/auth"
	"github.com/goliatone/go-editorial/internal/workflow"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// errorBody is the JSON error envelope.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind             string                    `json:"kind"`
	Category         string                    `json:"category"`
	Message          string                    `json:"message"`
	Metadata         map[string]any            `json:"metadata,omitempty"`
	ValidationErrors goerrors.ValidationErrors `json:"validation_errors,omitempty"`
}

func joinPath(base, suffix string) string {
	trimmedBase := strings.Trim(strings.TrimSpace(base), "/")
	trimmedSuffix := strings.Trim(strings.TrimSpace(suffix), "/")
	switch {
	case trimmedBase == "" && trimmedSuffix == "":
		return "/"
	case trimmedBase == "":
		return "/" + trimmedSuffix
	case trimmedSuffix == "":
		return "/" + trimmedBase
	}
	return "/" + trimmedBase + "/" + trimmedSuffix
}

func decodeJSON(r *http.Request, target any) error {
	if r == nil || r.Body == nil {
		return badRequest("request body required", io.EOF)
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body required", err)
		}
		return badRequest("request body is not valid JSON", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) int {
	status, body := mapError(err)
	writeJSON(w, status, body)
	return status
}

// mapError converts a categorised error into a status code and envelope.
// Uncategorised errors are reported as internal without leaking their text.
func mapError(err error) (int, errorBody) {
	var gerr *goerrors.Error
	if err == nil || !goerrors.As(err, &gerr) {
		return http.StatusInternalServerError, errorBody{Error: errorDetail{
			Kind:     "INTERNAL",
			Category: goerrors.CategoryInternal.String(),
			Message:  "internal error",
		}}
	}

	kind := workflow.Kind(err)
	if kind == "" && errors.Is(err, auth.ErrInvalidToken) {
		kind = auth.TextCodeUnauthenticated
	}
	if kind == "" {
		kind = gerr.TextCode
	}
	if kind == "" {
		kind = strings.ToUpper(gerr.Category.String())
	}

	detail := errorDetail{
		Kind:             kind,
		Category:         gerr.Category.String(),
		Message:          gerr.Message,
		Metadata:         gerr.Metadata,
		ValidationErrors: gerr.AllValidationErrors(),
	}
	if gerr.Category == goerrors.CategoryInternal {
		detail.Message = "internal error"
		detail.Metadata = nil
	}
	return statusFor(gerr.Category), errorBody{Error: detail}
}

func statusFor(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return goerrors.CodeBadRequest
	case goerrors.CategoryAuth:
		return goerrors.CodeUnauthorized
	case goerrors.CategoryAuthz:
		return goerrors.CodeForbidden
	case goerrors.CategoryNotFound:
		return goerrors.CodeNotFound
	case goerrors.CategoryConflict:
		return goerrors.CodeConflict
	default:
		return goerrors.CodeInternal
	}
}

func badRequest(message string, cause error) *goerrors.Error {
	err := goerrors.New(message, goerrors.CategoryBadInput).WithTextCode("BAD_REQUEST")
	if cause != nil {
		err.Source = cause
	}
	return err
}

func parseUUID(value, field string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(value)
	parsed, err := uuid.Parse(trimmed)
	if err != nil || parsed == uuid.Nil {
		return uuid.Nil, badRequest(field+" must be a uuid", err).
			WithMetadata(map[string]any{"field": field, "value": trimmed})
	}
	return parsed, nil
}

func parseIntQuery(value, field string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, badRequest(field+" must be an integer", err).
			WithMetadata(map[string]any{"field": field, "value": trimmed})
	}
	return parsed, nil
}
