package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ExecuteRequest body para POST /api/facturacion/ejecutar.
type ExecuteRequest struct {
	Periodo string `json:"periodo"` // YYYY-MM
}
