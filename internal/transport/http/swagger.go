package http

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/ghodss/yaml"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/qwfeng/ai-trip-planner-backend/internal/util"
)

// RegisterSwagger mounts the Swagger UI under /swagger. The spec itself
// is kept as YAML in docs/ and converted to JSON on request.
func RegisterSwagger(e *echo.Echo) {
	e.GET("/swagger/doc.json", serveSpec)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}

func serveSpec(c echo.Context) error {
	data, err := os.ReadFile(filepath.Join("docs", "swagger.yaml"))
	if err != nil {
		c.Logger().Errorf("load swagger spec: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("unable to load swagger spec"))
	}
	jsonSpec, err := yaml.YAMLToJSON(data)
	if err != nil {
		c.Logger().Errorf("convert swagger spec: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("unable to parse swagger spec"))
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, jsonSpec)
}
