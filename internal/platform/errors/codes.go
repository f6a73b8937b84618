// Package errors provides structured error handling with i18n support.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeInvalidRequest Code = "INVALID_REQUEST"
	CodeInvalidFilter  Code = "INVALID_FILTER"

	// Auth errors
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeForbidden           Code = "ADMIN_REQUIRED"
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeInvalidRegistration Code = "INVALID_REGISTRATION"
	CodeEmailTaken          Code = "EMAIL_TAKEN"
	CodeInvalidProfile      Code = "INVALID_PROFILE"

	// Card errors
	CodeCardNotFound    Code = "CARD_NOT_FOUND"
	CodeInvalidCardData Code = "INVALID_CARD_DATA"

	// Training errors
	CodeInvalidSessionData Code = "INVALID_SESSION_DATA"
	CodeInvalidMode        Code = "INVALID_MODE"

	// Simulator errors
	CodeGameNotFound     Code = "GAME_NOT_FOUND"
	CodeGameInvalidState Code = "GAME_INVALID_STATE"
	CodeInvalidSettings  Code = "INVALID_SIMULATOR_SETTINGS"
	CodeEmptyCatalog     Code = "EMPTY_CARD_CATALOG"

	// Upstream errors
	CodeUpstreamNotConfigured Code = "CLASH_ROYALE_NOT_CONFIGURED"
	CodeUpstreamFailed        Code = "CLASH_ROYALE_FAILED"

	// Storage errors
	CodeNotFound     Code = "NOT_FOUND"
	CodeUserNotFound Code = "USER_NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidRequest,
		CodeInvalidFilter,
		CodeInvalidRegistration,
		CodeEmailTaken,
		CodeInvalidProfile,
		CodeInvalidCardData,
		CodeInvalidSessionData,
		CodeInvalidMode,
		CodeInvalidSettings:
		return http.StatusBadRequest

	case CodeUnauthorized, CodeInvalidCredentials:
		return http.StatusUnauthorized

	case CodeForbidden:
		return http.StatusForbidden

	case CodeNotFound, CodeCardNotFound, CodeGameNotFound, CodeUserNotFound:
		return http.StatusNotFound

	case CodeGameInvalidState, CodeEmptyCatalog:
		return http.StatusConflict

	case CodeUpstreamFailed:
		return http.StatusBadGateway

	case CodeUpstreamNotConfigured, CodeUnknown:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
