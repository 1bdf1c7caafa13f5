package dto

// PageRequest paginación para listados de productos (limit/skip como en el API original).
type PageRequest struct {
	Limit int `query:"limit"`
	Skip  int `query:"skip"`
}

// MaxPageLimit tope para limit en listados.
const MaxPageLimit = 100

// DefaultPage aplica valores por defecto si Limit/Skip no son válidos.
func (p *PageRequest) DefaultPage(defaultLimit int) {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Skip < 0 {
		p.Skip = 0
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthResponse salida de GET /health. Status es "degraded" si el store de imágenes perdió la conexión.
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Images  string `json:"images,omitempty"`
}
