package types

import "github.com/angelmondragon/shopeasy-backend/pkg/pagination"

// Envelope wraps every successful JSON payload. Meta is only present on list
// endpoints, where it describes the page window.
type Envelope[T any] struct {
	Data T                `json:"data"`
	Meta *pagination.Page `json:"meta,omitempty"`
}

// APIError is the public shape of a failed request. Details maps request
// fields to messages for validation failures.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
