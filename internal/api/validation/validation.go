// Package validation provides request decoding and struct validation shared
// by the handlers.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"

	"github.com/profscope/hub/internal/api/response"
)

// validate and decoder are package-level singletons that are safe for
// concurrent read-only access. Registrations must happen in init() only.
var (
	validate *validator.Validate
	decoder  *form.Decoder
)

func init() {
	validate = validator.New()
	decoder = form.NewDecoder()
	decoder.SetTagName("json")
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields.
// On failure it writes the error response and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			response.RespondError(w, http.StatusRequestEntityTooLarge,
				"Request Entity Too Large",
				fmt.Sprintf("request body exceeds %d bytes", maxBytesErr.Limit))

			return false
		}

		response.RespondBadRequest(w, "Invalid request body")

		return false
	}

	return true
}

// DecodeQuery decodes URL query parameters into dst using the json field
// names. On failure it writes a 400 and returns false.
func DecodeQuery(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decoder.Decode(dst, r.URL.Query()); err != nil {
		response.RespondBadRequest(w, "Invalid query parameters")

		return false
	}

	return true
}

// ValidateStruct validates dst's struct tags. On failure it writes a problem
// response listing the offending fields and returns false.
func ValidateStruct(w http.ResponseWriter, dst any) bool {
	err := validate.Struct(dst)
	if err == nil {
		return true
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		response.RespondBadRequest(w, "Invalid request")

		return false
	}

	details := make([]response.ErrorDetail, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		details = append(details, response.ErrorDetail{
			Location: strings.ToLower(fieldErr.Field()),
			Message:  fmt.Sprintf("failed %q validation", fieldErr.Tag()),
		})
	}

	response.RespondProblem(w, response.ProblemDetails{
		Type:   "about:blank",
		Title:  "Validation Failed",
		Status: http.StatusBadRequest,
		Detail: "one or more fields are invalid",
		Errors: details,
	})

	return false
}
