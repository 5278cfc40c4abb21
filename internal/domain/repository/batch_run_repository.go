package repository

import (
	"context"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
)

// BatchRunRepository guarda el resumen finalizado de cada ejecución.
type BatchRunRepository interface {
	Save(ctx context.Context, run *entity.BatchRun) error
	GetByID(ctx context.Context, id string) (*entity.BatchRun, error)
}
