package http

import (
	"errors"

	"oc-checklist-service/internal/catalog"
	"oc-checklist-service/internal/domain"
)

var (
	errInvalidPayload  = errors.New("invalid payload")
	errUnsupportedType = errors.New("unsupported message type")
)

// errorDetails builds the error body shared by REST and websocket clients.
func errorDetails(err error) errorBody {
	body := errorBody{Message: err.Error()}
	var incomplete *domain.IncompleteError
	var missing *domain.MissingEvidenceError
	var invalid *catalog.ValidationError
	switch {
	case errors.As(err, &incomplete):
		body.Remaining = incomplete.Remaining
		body.First = &incomplete.First
	case errors.As(err, &missing):
		body.ItemIDs = missing.ItemIDs
	case errors.As(err, &invalid):
		body.Fields = invalid.Errors
	}
	return body
}
