// Package docs registra la especificación OpenAPI de la API para swag.
package docs

import (
	_ "embed"

	"github.com/swaggo/swag"
)

// SwaggerFile ruta bajo la que Swagger UI publica el documento.
const SwaggerFile = "./docs/swagger.json"

//go:embed swagger.json
var docTemplate string

// SwaggerInfo información de la API, editable antes de servir la documentación.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Insanjo POS API",
	Description:      "Inventario, ventas y devoluciones de un punto de venta.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}

// JSON documento OpenAPI ya renderizado con los valores actuales de SwaggerInfo.
func JSON() []byte {
	return []byte(SwaggerInfo.ReadDoc())
}
