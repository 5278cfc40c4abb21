package repository

import (
	"context"
	"time"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

// ClientServiceRepository puerto de lectura de servicios contratados (dueño: gestión de clientes).
type ClientServiceRepository interface {
	// ListActive devuelve la foto de servicios activos a la fecha de referencia, ordenada por cliente.
	ListActive(ctx context.Context, referenceDate time.Time) ([]entity.ClientService, error)
}
