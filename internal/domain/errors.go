package domain

import (
	"context"
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del motor de facturación recurrente.
var (
	ErrInvalidServiceState = errors.New("estado de servicio inválido")
	ErrInvalidTaxRate      = errors.New("tarifa de impuesto inválida")
	ErrNoChargeableItems   = errors.New("sin conceptos facturables")
	ErrAlreadyBilled       = errors.New("periodo ya facturado")
	ErrAssembly            = errors.New("error ensamblando la factura")
	ErrPersistenceConflict = errors.New("conflicto de unicidad al persistir la factura")
	ErrEnumeration         = errors.New("no se pudo obtener la población de clientes")
)

// ErrorKind clasifica el resultado fallido (u omitido) de un cliente dentro de una ejecución.
type ErrorKind string

const (
	KindInvalidServiceState ErrorKind = "invalid_service_state"
	KindInvalidTaxRate      ErrorKind = "invalid_tax_rate"
	KindNoChargeableItems   ErrorKind = "no_chargeable_items"
	KindAlreadyBilled       ErrorKind = "already_billed"
	KindAssembly            ErrorKind = "assembly_error"
	KindPersistenceConflict ErrorKind = "persistence_conflict"
	KindPersistence         ErrorKind = "persistence_error"
	KindEnumeration         ErrorKind = "enumeration_error"
	KindCancelled           ErrorKind = "cancelled"
	KindTimeout             ErrorKind = "timeout"
	KindInternal            ErrorKind = "internal"
)

// KindOf devuelve la clase de un error envuelto. El orden importa: un ErrAssembly que envuelve
// ErrInvalidTaxRate se reporta como invalid_tax_rate.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidServiceState):
		return KindInvalidServiceState
	case errors.Is(err, ErrInvalidTaxRate):
		return KindInvalidTaxRate
	case errors.Is(err, ErrNoChargeableItems):
		return KindNoChargeableItems
	case errors.Is(err, ErrAlreadyBilled):
		return KindAlreadyBilled
	case errors.Is(err, ErrPersistenceConflict):
		return KindPersistenceConflict
	case errors.Is(err, ErrAssembly):
		return KindAssembly
	case errors.Is(err, ErrEnumeration):
		return KindEnumeration
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		var be *BillingError
		if errors.As(err, &be) && be.Kind != "" {
			return be.Kind
		}
		return KindInternal
	}
}

// IsSkip informa si el error representa una omisión legítima (no un fallo).
// PersistenceConflict se trata como AlreadyBilled: otra ejecución ganó la carrera por el periodo.
func IsSkip(err error) bool {
	switch KindOf(err) {
	case KindNoChargeableItems, KindAlreadyBilled, KindPersistenceConflict:
		return true
	}
	return false
}

// BillingError asocia un error a un cliente y a la etapa del pipeline que lo produjo.
type BillingError struct {
	ClientID string
	Stage    string // period | aggregate | assemble | persist
	Kind     ErrorKind
	Err      error
}

// NewBillingError construye el error clasificando la causa con KindOf.
func NewBillingError(clientID, stage string, err error) *BillingError {
	return &BillingError{ClientID: clientID, Stage: stage, Kind: KindOf(err), Err: err}
}

func (e *BillingError) Error() string {
	return fmt.Sprintf("cliente %s [%s]: %v", e.ClientID, e.Stage, e.Err)
}

func (e *BillingError) Unwrap() error { return e.Err }
