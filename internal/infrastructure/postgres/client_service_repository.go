package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/ISP-Facturacion-api/internal/domain/repository"
)

var _ repository.ClientServiceRepository = (*ClientServiceRepo)(nil)

// ClientServiceRepo lectura de servicios contratados (tablas de gestión de clientes).
type ClientServiceRepo struct {
	q Querier
}

// NewClientServiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewClientServiceRepository(q Querier) *ClientServiceRepo {
	return &ClientServiceRepo{q: q}
}

// ListActive servicios en estado active, ordenados por cliente y activación.
// Los servicios registrados después de referenceDate no participan en la corrida.
func (r *ClientServiceRepo) ListActive(ctx context.Context, referenceDate time.Time) ([]entity.ClientService, error) {
	const q = `
		SELECT s.id, s.cliente_id, c.nombre, s.tipo, s.plan_nombre, s.precio_mensual,
		       s.aplica_iva, s.porcentaje_iva, s.estrato, s.fecha_activacion, s.estado
		FROM servicios_cliente s
		JOIN clientes c ON c.id = s.cliente_id
		WHERE s.estado = 'active' AND s.creado_en::date <= $1
		ORDER BY s.cliente_id, s.fecha_activacion NULLS FIRST, s.id`
	rows, err := r.q.Query(ctx, q, referenceDate)
	if err != nil {
		return nil, fmt.Errorf("list active services: %w", err)
	}
	services, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.ClientService, error) {
		return scanClientService(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan active services: %w", err)
	}
	return services, nil
}

func scanClientService(row pgxScanner) (entity.ClientService, error) {
	var svc entity.ClientService
	var typ, status string
	var plan *string
	err := row.Scan(
		&svc.ID, &svc.ClientID, &svc.ClientName, &typ, &plan, &svc.MonthlyPrice,
		&svc.AppliesIVA, &svc.IVAPercentage, &svc.Stratum, &svc.ActivationDate, &status,
	)
	if err != nil {
		return svc, err
	}
	svc.Type = entity.ServiceType(typ)
	svc.Status = entity.ServiceStatus(status)
	svc.PlanName = derefStr(plan)
	return svc, nil
}
