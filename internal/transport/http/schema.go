package http

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xeipuuv/gojsonschema"
	"vn.io.arda/notify/internal/messages"
)

const notificationSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "id":              { "type": "string" },
    "recipientId":     { "type": "string" },
    "eventConfigName": { "type": "string" },
    "lang":            { "type": "string" },
    "context":         { "type": "object" },
    "text":            { "type": "string" },
    "link":            { "type": "string" },
    "seen":            { "type": "boolean" },
    "metadata":        { "type": "object" }
  }
}`

const patronNoticeSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-04/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "recipientId":     { "type": "string" },
    "templateId":      { "type": "string" },
    "deliveryChannel": { "type": "string" },
    "outputFormat":    { "type": "string" },
    "lang":            { "type": "string" },
    "context":         { "type": "object" }
  },
  "required": ["recipientId", "templateId", "deliveryChannel", "outputFormat"]
}`

var (
	notificationSchema = mustSchema(notificationSchemaJSON)
	patronNoticeSchema = mustSchema(patronNoticeSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile schema: %v", err))
	}
	return s
}

// validateBody checks body against schema. On failure it writes the response itself and
// returns ok=false: 400 for malformed JSON, 422 listing every schema violation.
func validateBody(c echo.Context, lang string, schema *gojsonschema.Schema, body []byte) (bool, error) {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return false, c.String(http.StatusBadRequest, messages.Get(lang, messages.InvalidBody, err.Error()))
	}
	if result.Valid() {
		return true, nil
	}
	items := make([]ErrorItem, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "(root)" {
			if p, ok := desc.Details()["property"].(string); ok {
				field = p
			}
		}
		items = append(items, validationItem(field, desc.Description()))
	}
	return false, c.JSON(http.StatusUnprocessableEntity, validationBody(items...))
}
