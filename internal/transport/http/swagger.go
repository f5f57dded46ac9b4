package http

import (
	_ "embed"
	"log"
	"net/http"

	"github.com/ghodss/yaml"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/njprem/authcore-api/internal/util"
)

//go:embed swagger.yaml
var swaggerYAML []byte

// RegisterSwagger serves the embedded OpenAPI document and the Swagger UI
// under /swagger.
func RegisterSwagger(e *echo.Echo) {
	jsonDoc, err := yaml.YAMLToJSON(swaggerYAML)
	if err != nil {
		log.Printf("swagger: convert document: %v", err)
	}
	e.GET("/swagger/doc.json", func(c echo.Context) error {
		if err != nil {
			return c.JSON(http.StatusInternalServerError, util.Error("swagger document unavailable"))
		}
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, jsonDoc)
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
