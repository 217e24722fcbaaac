package handlers

import (
	_ "embed"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
)

//go:embed openapi.json
var openapiSpec []byte

// LoadOpenAPISpec parses and validates the embedded OpenAPI document.
// Called at startup so a malformed document fails fast instead of serving
// garbage to API consumers.
func LoadOpenAPISpec() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openapiSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return doc, nil
}

// OpenAPIHandler serves the API description
type OpenAPIHandler struct{}

// NewOpenAPIHandler creates a new OpenAPI handler
func NewOpenAPIHandler() *OpenAPIHandler {
	return &OpenAPIHandler{}
}

// GetSpec handles GET /openapi.json
func (h *OpenAPIHandler) GetSpec(c echo.Context) error {
	return c.JSONBlob(http.StatusOK, openapiSpec)
}
