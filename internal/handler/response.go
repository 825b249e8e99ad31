package handler

import (
	"encoding/json"
	"net/http"

	"github.com/forgo/accord/internal/model"
)

// DataResponse wraps a successful response with optional HATEOAS links
type DataResponse struct {
	Data  any               `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// CollectionResponse wraps a collection response
type CollectionResponse struct {
	Data  any               `json:"data"`
	Count int               `json:"count"`
	Links map[string]string `json:"_links,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data any, links map[string]string) {
	WriteJSON(w, status, DataResponse{
		Data:  data,
		Links: links,
	})
}

// WriteCollection writes a collection response
func WriteCollection(w http.ResponseWriter, status int, data any, count int, links map[string]string) {
	WriteJSON(w, status, CollectionResponse{
		Data:  data,
		Count: count,
		Links: links,
	})
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	err.WriteJSON(w)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

func invalidBody() *model.ProblemDetails {
	return model.NewBadRequestError("Invalid request body")
}

func requiredField(field string) *model.ProblemDetails {
	return model.NewValidationError([]model.FieldError{{Field: field, Message: field + " is required"}})
}
