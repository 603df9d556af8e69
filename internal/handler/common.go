// Package handler defines the HTTP handlers of the API.  Every response uses
// the envelope {success, data?, message?, count?}.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resolvenow/internal/authz"
	"github.com/iliyamo/resolvenow/internal/metrics"
	mw "github.com/iliyamo/resolvenow/internal/middleware"
	"github.com/iliyamo/resolvenow/internal/validation"
)

// Body messages that are part of the API surface.
const (
	MsgServerError        = "Server error"
	MsgInvalidBody        = "Invalid request body"
	MsgComplaintNotFound  = "Complaint not found"
	MsgFeedbackNotFound   = "Feedback not found"
	MsgComplaintDeleted   = "Complaint deleted successfully"
	MsgRouteNotFound      = "Route not found"
	MsgMethodNotAllowed   = "Method not allowed"
	MsgRequestTooLarge    = "Request entity too large"
	MsgUserExists         = "User already exists"
	MsgInvalidCredentials = "Invalid credentials"
)

// dbTimeout bounds every storage call made while serving a request.
const dbTimeout = 5 * time.Second

type envelope struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondData(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, Data: data})
}

func respondList(c echo.Context, data any, n int) error {
	return c.JSON(http.StatusOK, envelope{Success: true, Count: &n, Data: data})
}

func respondMessage(c echo.Context, status int, msg string) error {
	return c.JSON(status, envelope{Success: status < http.StatusBadRequest, Message: msg})
}

// serverError logs the cause and answers with the generic 500 body.
func serverError(c echo.Context, log *slog.Logger, op string, err error) error {
	log.Error(op+" failed", "error", err, "path", c.Path(), "request_id", c.Response().Header().Get(echo.HeaderXRequestID))
	return respondMessage(c, http.StatusInternalServerError, MsgServerError)
}

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// pathID parses the :id parameter.  A value that cannot be a row id reports
// false, which handlers answer as not found.
func pathID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// currentPrincipal returns the identity attached by LoadIdentity.  ok is
// false on a route mounted without it.
func currentPrincipal(c echo.Context) (authz.Principal, bool) {
	p, ok := mw.PrincipalFrom(c)
	return p, ok && p.ID != 0
}

func unauthorized(c echo.Context) error {
	return respondMessage(c, http.StatusUnauthorized, mw.MsgNotAuthorized)
}

// validateBody decodes the JSON body and runs schema over it.  On failure it
// writes the 400 response and returns ok=false together with the write error.
func validateBody(c echo.Context, schema validation.Schema, resource string) (validation.Values, bool, error) {
	body, err := validation.DecodeBody(c.Request().Body)
	if err != nil {
		metrics.ValidationFailuresTotal.WithLabelValues(resource).Inc()
		return nil, false, respondMessage(c, http.StatusBadRequest, MsgInvalidBody)
	}
	vals, err := schema.Validate(body)
	if err != nil {
		metrics.ValidationFailuresTotal.WithLabelValues(resource).Inc()
		return nil, false, respondMessage(c, http.StatusBadRequest, err.Error())
	}
	return vals, true, nil
}

// denied answers an ownership failure.  Denials use 401, not 403, with a
// message naming the action and the resource.
func denied(c echo.Context, resource string, action authz.Action) error {
	metrics.AuthzDenialsTotal.WithLabelValues(resource, string(action)).Inc()
	verb := "access"
	switch action {
	case authz.ActionUpdate:
		verb = "update"
	case authz.ActionDelete:
		verb = "delete"
	}
	return respondMessage(c, http.StatusUnauthorized, "Not authorized to "+verb+" this "+resource)
}

// HTTPErrorHandler renders errors that escape handlers (unknown routes,
// wrong methods, oversized bodies, recovered panics) in the envelope.
func HTTPErrorHandler(log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := http.StatusInternalServerError
		msg := MsgServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			switch status {
			case http.StatusNotFound:
				msg = MsgRouteNotFound
			case http.StatusMethodNotAllowed:
				msg = MsgMethodNotAllowed
			case http.StatusRequestEntityTooLarge:
				msg = MsgRequestTooLarge
			case http.StatusUnauthorized:
				msg = mw.MsgNotAuthorized
			default:
				if s, ok := he.Message.(string); ok && status < http.StatusInternalServerError {
					msg = s
				} else if status < http.StatusInternalServerError {
					msg = http.StatusText(status)
				}
			}
		}
		if status >= http.StatusInternalServerError {
			log.Error("unhandled error", "error", err, "path", c.Request().URL.Path)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = respondMessage(c, status, msg)
		}
		if werr != nil {
			log.Warn("write error response failed", "error", werr)
		}
	}
}
