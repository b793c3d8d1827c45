package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"vn.io.arda/notify/internal/domain"
	"vn.io.arda/notify/internal/messages"
)

// Parameter names the offending field of a validation error.
type Parameter struct {
	Key   string `json:"key"`
	Value string `json:"value,omitempty"`
}

// ErrorItem is one validation failure.
type ErrorItem struct {
	Message    string      `json:"message"`
	Type       string      `json:"type"`
	Code       string      `json:"code"`
	Parameters []Parameter `json:"parameters,omitempty"`
}

// Errors is the 422 response body.
type Errors struct {
	Errors       []ErrorItem `json:"errors"`
	TotalRecords int         `json:"total_records"`
}

func validationBody(items ...ErrorItem) Errors {
	return Errors{Errors: items, TotalRecords: len(items)}
}

func validationItem(field, msg string) ErrorItem {
	item := ErrorItem{Message: msg, Type: "1", Code: "-1"}
	if field != "" {
		item.Parameters = []Parameter{{Key: field}}
	}
	return item
}

// respondError writes err using the status of its kind.
func respondError(c echo.Context, lang string, err error) error {
	de := domain.AsError(err)
	switch de.Kind {
	case domain.KindValidation:
		return c.JSON(http.StatusUnprocessableEntity, validationBody(validationItem(de.Field, de.Message)))
	case domain.KindNotFound:
		return c.String(http.StatusNotFound, de.Message)
	case domain.KindBadRequest:
		return c.String(http.StatusBadRequest, de.Message)
	default:
		log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("request failed")
		return c.String(http.StatusInternalServerError, messages.Get(lang, messages.InternalError))
	}
}

// respondQueryError is respondError for listing endpoints, where a rejected filter is a 400.
func respondQueryError(c echo.Context, lang string, err error) error {
	if de := domain.AsError(err); de.Kind == domain.KindValidation {
		return c.String(http.StatusBadRequest, de.Message)
	}
	return respondError(c, lang, err)
}
