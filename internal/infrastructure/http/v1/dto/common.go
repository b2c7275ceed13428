// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"catalogstore/internal/core/id"
)

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Items      []T `json:"items"`
	TotalCount int `json:"totalCount"`
}

// NewListResponse creates a list response. A nil slice renders as [].
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, TotalCount: len(items)}
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// mapSlice converts src with fn, keeping nil as nil.
func mapSlice[S, D any](src []S, fn func(S) D) []D {
	if src == nil {
		return nil
	}
	out := make([]D, len(src))
	for i, s := range src {
		out[i] = fn(s)
	}
	return out
}
