// Copyright © 2023 Ory Corp
// SPDX-License-Identifier: Apache-2.0

package openid

import (
	"encoding/json"
	stderr "errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/language"

	"trajano.net/provider/openid/i18n"
	"trajano.net/provider/openid/internal/errorsx"
)

var (
	// ErrInvalidRequest represents the 'invalid_request' error from RFC6749.
	//
	// See: https://datatracker.ietf.org/doc/html/rfc6749#section-4.1.2.1.
	ErrInvalidRequest = &RFC6749Error{
		ErrorField:       errInvalidRequestName,
		DescriptionField: "The request is missing a required parameter, includes an invalid parameter value, includes a parameter more than once, or is otherwise malformed.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrUnauthorizedClient represents the 'unauthorized_client' error from RFC6749.
	ErrUnauthorizedClient = &RFC6749Error{
		ErrorField:       errUnauthorizedClientName,
		DescriptionField: "The client is not authorized to request an authorization code using this method.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrAccessDenied represents the 'access_denied' error from RFC6749.
	ErrAccessDenied = &RFC6749Error{
		ErrorField:       errAccessDeniedName,
		DescriptionField: "The resource owner or authorization server denied the request.",
		CodeField:        http.StatusForbidden,
	}

	// ErrUnsupportedResponseType represents the 'unsupported_response_type' error from RFC6749.
	ErrUnsupportedResponseType = &RFC6749Error{
		ErrorField:       errUnsupportedResponseTypeName,
		DescriptionField: "The authorization server does not support obtaining an authorization code using this method.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrInvalidScope represents the 'invalid_scope' error from RFC6749.
	ErrInvalidScope = &RFC6749Error{
		ErrorField:       errInvalidScopeName,
		DescriptionField: "The requested scope is invalid, unknown, or malformed.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrServerError represents the 'server_error' error from RFC6749. It exists
	// because a 500 status cannot be delivered to the client via a redirect.
	ErrServerError = &RFC6749Error{
		ErrorField:       errServerErrorName,
		DescriptionField: "The authorization server encountered an unexpected condition that prevented it from fulfilling the request.",
		CodeField:        http.StatusInternalServerError,
	}

	// ErrTemporarilyUnavailable represents the 'temporarily_unavailable' error from RFC6749.
	ErrTemporarilyUnavailable = &RFC6749Error{
		ErrorField:       errTemporarilyUnavailableName,
		DescriptionField: "The authorization server is currently unable to handle the request due to a temporary overloading or maintenance of the server.",
		CodeField:        http.StatusServiceUnavailable,
	}

	// ErrInteractionRequired represents the 'interaction_required' error from OpenID Connect Core 1.0.
	ErrInteractionRequired = &RFC6749Error{
		ErrorField:       errInteractionRequiredName,
		DescriptionField: "The Authorization Server requires End-User interaction of some form to proceed.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrLoginRequired represents the 'login_required' error from OpenID Connect
	// Core 1.0, returned when prompt 'none' forbids the required login UI.
	ErrLoginRequired = &RFC6749Error{
		ErrorField:       errLoginRequiredName,
		DescriptionField: "The Authorization Server requires End-User authentication.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrAccountSelectionRequired represents the 'account_selection_required' error from OpenID Connect Core 1.0.
	ErrAccountSelectionRequired = &RFC6749Error{
		ErrorField:       errAccountSelectionRequiredName,
		DescriptionField: "The End-User is REQUIRED to select a session at the Authorization Server.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrConsentRequired represents the 'consent_required' error from OpenID Connect Core 1.0.
	ErrConsentRequired = &RFC6749Error{
		ErrorField:       errConsentRequiredName,
		DescriptionField: "The Authorization Server requires End-User consent.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrInvalidRequestURI represents the 'invalid_request_uri' error from OpenID Connect Core 1.0.
	ErrInvalidRequestURI = &RFC6749Error{
		ErrorField:       errInvalidRequestURIName,
		DescriptionField: "The request_uri in the Authorization Request returns an error or contains invalid data.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrInvalidRequestObject represents the 'invalid_request_object' error from OpenID Connect Core 1.0.
	ErrInvalidRequestObject = &RFC6749Error{
		ErrorField:       errInvalidRequestObjectName,
		DescriptionField: "The request parameter contains an invalid Request Object.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrRequestNotSupported represents the 'request_not_supported' error from OpenID Connect Core 1.0.
	ErrRequestNotSupported = &RFC6749Error{
		ErrorField:       errRequestNotSupportedName,
		DescriptionField: "The OP does not support use of the request parameter.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrRequestURINotSupported represents the 'request_uri_not_supported' error from OpenID Connect Core 1.0.
	ErrRequestURINotSupported = &RFC6749Error{
		ErrorField:       errRequestURINotSupportedName,
		DescriptionField: "The OP does not support use of the request_uri parameter.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrRegistrationNotSupported represents the 'registration_not_supported' error from OpenID Connect Core 1.0.
	ErrRegistrationNotSupported = &RFC6749Error{
		ErrorField:       errRegistrationNotSupportedName,
		DescriptionField: "The OP does not support use of the registration parameter.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrInvalidClient is an HTTP-delivered error: the client failed to
	// authenticate, so no verified redirect target exists.
	ErrInvalidClient = &RFC6749Error{
		ErrorField:       errInvalidClientName,
		DescriptionField: "Client authentication failed (e.g., unknown client, no client authentication included, or unsupported authentication method).",
		CodeField:        http.StatusUnauthorized,
	}

	// ErrInvalidGrant covers invalid, expired, or revoked authorization codes
	// and mismatched redirection URIs.
	ErrInvalidGrant = &RFC6749Error{
		ErrorField:       errInvalidGrantName,
		DescriptionField: "The provided authorization grant (e.g., authorization code, resource owner credentials) or refresh token is invalid, expired, revoked, does not match the redirection URI used in the authorization request, or was issued to another client.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrAuthorizationCodeUsed is the distinct condition for a code which was
	// already redeemed. It must never be silently treated as success.
	ErrAuthorizationCodeUsed = &RFC6749Error{
		ErrorField:       errInvalidGrantName,
		DescriptionField: "The provided authorization code has already been used.",
		HintField:        "Authorization codes are single use. All tokens previously issued for this code should be revoked.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrUnsupportedGrantType represents the 'unsupported_grant_type' error from RFC6749.
	ErrUnsupportedGrantType = &RFC6749Error{
		ErrorField:       errUnsupportedGrantTypeName,
		DescriptionField: "The authorization grant type is not supported by the authorization server.",
		CodeField:        http.StatusBadRequest,
	}

	// ErrSSLRequired is a transport precondition failure: the request did not
	// arrive over a secure transport. Fatal, never redirected, never retried.
	ErrSSLRequired = &RFC6749Error{
		ErrorField:       errInvalidRequestName,
		DescriptionField: "The request must be sent over a secure transport.",
		CodeField:        http.StatusUpgradeRequired,
	}

	// ErrRequestUnauthorized covers protected resource requests with missing,
	// unknown, or expired access tokens.
	ErrRequestUnauthorized = &RFC6749Error{
		ErrorField:       errRequestUnauthorizedName,
		DescriptionField: "The request could not be authorized.",
		HintField:        "Check that you provided valid credentials in the right format.",
		CodeField:        http.StatusUnauthorized,
	}
)

const (
	errInvalidRequestName           = "invalid_request"
	errUnauthorizedClientName       = "unauthorized_client"
	errAccessDeniedName             = "access_denied"
	errUnsupportedResponseTypeName  = "unsupported_response_type"
	errInvalidScopeName             = "invalid_scope"
	errServerErrorName              = "server_error"
	errTemporarilyUnavailableName   = "temporarily_unavailable"
	errInteractionRequiredName      = "interaction_required"
	errLoginRequiredName            = "login_required"
	errAccountSelectionRequiredName = "account_selection_required"
	errConsentRequiredName          = "consent_required"
	errInvalidRequestURIName        = "invalid_request_uri"
	errInvalidRequestObjectName     = "invalid_request_object"
	errRequestNotSupportedName      = "request_not_supported"
	errRequestURINotSupportedName   = "request_uri_not_supported"
	errRegistrationNotSupportedName = "registration_not_supported"
	errInvalidClientName            = "invalid_client"
	errInvalidGrantName             = "invalid_grant"
	errUnsupportedGrantTypeName     = "unsupported_grant_type"
	errRequestUnauthorizedName      = "request_unauthorized"
	errUnknownErrorName             = "error"
)

// RFC6749Error is a protocol error carrying the standardized error code, a
// description, an optional hint for the developer, and the HTTP status used
// when the error cannot be delivered by redirect.
type RFC6749Error struct {
	ErrorField       string
	DescriptionField string
	HintField        string
	CodeField        int
	DebugField       string
	cause            error
	exposeDebug      bool

	// Fields for globalization.
	hintIDField string
	hintArgs    []any
	catalog     i18n.MessageCatalog
	lang        language.Tag
}

// ErrorToRFC6749Error converts any error to an RFC6749Error, wrapping
// unclassified failures as a generic unknown error so lower layers never leak
// raw failures to the transport boundary.
func ErrorToRFC6749Error(err error) *RFC6749Error {
	var e *RFC6749Error

	if errors.As(err, &e) {
		return e
	}

	return &RFC6749Error{
		ErrorField:       errUnknownErrorName,
		DescriptionField: "The error is unrecognizable.",
		DebugField:       err.Error(),
		CodeField:        http.StatusInternalServerError,
		cause:            err,
	}
}

// StackTrace returns the stack trace of the cause when one is carried.
func (e *RFC6749Error) StackTrace() (trace errors.StackTrace) {
	if e.cause == e || e.cause == nil {
		return
	}

	if st := errorsx.StackTracer(nil); stderr.As(e.cause, &st) {
		trace = st.StackTrace()
	}

	return
}

func (e RFC6749Error) Unwrap() error {
	return e.cause
}

func (e *RFC6749Error) Wrap(err error) {
	e.cause = err
}

func (e RFC6749Error) WithWrap(cause error) *RFC6749Error {
	e.cause = cause

	return &e
}

func (e RFC6749Error) Is(err error) bool {
	switch te := err.(type) {
	case RFC6749Error:
		return e.ErrorField == te.ErrorField && e.CodeField == te.CodeField
	case *RFC6749Error:
		return e.ErrorField == te.ErrorField && e.CodeField == te.CodeField
	}

	return false
}

func (e RFC6749Error) Error() string {
	return e.ErrorField
}

func (e *RFC6749Error) Status() string {
	return http.StatusText(e.CodeField)
}

func (e *RFC6749Error) StatusCode() int {
	return e.CodeField
}

func (e *RFC6749Error) Reason() string {
	return e.HintField
}

func (e *RFC6749Error) Cause() error {
	return e.cause
}

func (e *RFC6749Error) WithHint(hint string) *RFC6749Error {
	err := *e
	if err.hintIDField == "" {
		err.hintIDField = hint
	}

	err.HintField = hint

	return &err
}

func (e *RFC6749Error) WithHintf(hint string, args ...any) *RFC6749Error {
	err := *e
	if err.hintIDField == "" {
		err.hintIDField = hint
	}

	err.hintArgs = args
	err.HintField = fmt.Sprintf(hint, args...)

	return &err
}

func (e *RFC6749Error) Debug() string {
	return e.DebugField
}

func (e *RFC6749Error) WithDebug(debug string) *RFC6749Error {
	err := *e
	err.DebugField = debug

	return &err
}

func (e *RFC6749Error) WithDebugf(debug string, args ...any) *RFC6749Error {
	return e.WithDebug(fmt.Sprintf(debug, args...))
}

func (e *RFC6749Error) WithDebugError(debug error) *RFC6749Error {
	return e.WithDebug(debug.Error())
}

func (e *RFC6749Error) WithDescription(description string) *RFC6749Error {
	err := *e
	err.DescriptionField = description

	return &err
}

// WithLocalizer attaches the message catalog and language used when rendering
// the description and hint.
func (e *RFC6749Error) WithLocalizer(catalog i18n.MessageCatalog, lang language.Tag) *RFC6749Error {
	err := *e
	err.catalog = catalog
	err.lang = lang

	return &err
}

// Sanitize strips the debug field before an error leaves the server boundary.
func (e *RFC6749Error) Sanitize() *RFC6749Error {
	err := *e
	err.DebugField = ""

	return &err
}

// WithExposeDebug if set to true exposes debug messages to the client.
func (e *RFC6749Error) WithExposeDebug(exposeDebug bool) *RFC6749Error {
	err := *e
	err.exposeDebug = exposeDebug

	return &err
}

// GetDescription returns the description combined with the hint and, when
// exposure is enabled, the debug message.
func (e *RFC6749Error) GetDescription() string {
	description := i18n.GetMessageOrDefault(e.catalog, e.ErrorField, e.lang, e.DescriptionField)

	if e.hintIDField != "" {
		e.HintField = i18n.GetMessageOrDefault(e.catalog, e.hintIDField, e.lang, e.HintField, e.hintArgs...)
	}

	if e.HintField != "" {
		description += " " + e.HintField
	}

	if e.exposeDebug && e.DebugField != "" {
		description += " " + e.DebugField
	}

	return strings.ReplaceAll(description, `"`, `'`)
}

type rfc6749ErrorJSON struct {
	Name        string `json:"error"`
	Description string `json:"error_description"`
}

func (e RFC6749Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(rfc6749ErrorJSON{
		Name:        e.ErrorField,
		Description: e.GetDescription(),
	})
}

func (e *RFC6749Error) UnmarshalJSON(b []byte) error {
	var data rfc6749ErrorJSON

	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}

	e.ErrorField = data.Name
	e.DescriptionField = data.Description

	return nil
}

// ToValues serializes the error into the query parameters of an error
// redirect. The caller adds the echoed state value; token material never
// appears here.
func (e *RFC6749Error) ToValues() url.Values {
	values := url.Values{}
	values.Set("error", e.ErrorField)
	values.Set("error_description", e.GetDescription())

	return values
}

// EscapeJSONString does a poor man's JSON encoding. Escaping is only done for
// characters that break a double-quoted JSON string, which is sufficient for
// the fallback error bodies written when full encoding already failed.
func EscapeJSONString(str string) string {
	str = strings.ReplaceAll(str, `\`, `\\`)
	str = strings.ReplaceAll(str, `"`, `\"`)

	return str
}
