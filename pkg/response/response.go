package response

import (
	"encoding/json"
	"errors"
	"net/http"

	pkgErrors "github.com/vogiaan1904/courtside-queue/pkg/errors"
)

type Resp struct {
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	Errors    any    `json:"errors,omitempty"`
}

func parseHttpError(err error) (int, Resp) {
	var parsedErr *pkgErrors.HTTPError
	if errors.As(err, &parsedErr) {
		statusCode := parsedErr.StatusCode
		if statusCode == 0 {
			statusCode = http.StatusBadRequest
		}

		return statusCode, Resp{
			ErrorCode: parsedErr.Code,
			Message:   parsedErr.Message,
		}
	}

	return http.StatusInternalServerError, Resp{
		ErrorCode: "CQ500",
		Message:   "Internal server error",
	}
}

// OK writes data wrapped in the standard envelope.
func OK(w http.ResponseWriter, statusCode int, data any) {
	JSON(w, statusCode, Resp{Message: "success", Data: data})
}

// Error renders err through its HTTPError code, or as an internal error.
func Error(w http.ResponseWriter, err error) {
	statusCode, body := parseHttpError(err)
	JSON(w, statusCode, body)
}

// ValidationError renders field-level validation failures.
func ValidationError(w http.ResponseWriter, code string, details any) {
	JSON(w, http.StatusBadRequest, Resp{
		ErrorCode: code,
		Message:   "Validation failed",
		Errors:    details,
	})
}

func JSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
