package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceType tipo de servicio contratado por el cliente.
type ServiceType string

const (
	ServiceInternet   ServiceType = "internet"
	ServiceTelevision ServiceType = "television"
	ServiceCombo      ServiceType = "combo"
)

// Valid informa si el tipo pertenece al catálogo cerrado.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceInternet, ServiceTelevision, ServiceCombo:
		return true
	}
	return false
}

// ServiceStatus estado del servicio en el subsistema de gestión de clientes.
type ServiceStatus string

const (
	ServiceActive    ServiceStatus = "active"
	ServiceSuspended ServiceStatus = "suspended"
	ServiceCancelled ServiceStatus = "cancelled"
)

// ClientService es la foto inmutable de un servicio contratado, leída una vez por ejecución.
type ClientService struct {
	ID             string
	ClientID       string
	ClientName     string
	Type           ServiceType
	PlanName       string
	MonthlyPrice   decimal.Decimal
	AppliesIVA     bool
	IVAPercentage  *decimal.Decimal // nil = usar el IVA configurado
	Stratum        int              // estrato socioeconómico 1–6
	ActivationDate *time.Time       // nil = dato faltante en origen
	Status         ServiceStatus
}

// IsActive informa si el servicio participa en la facturación.
func (s ClientService) IsActive() bool {
	return s.Status == ServiceActive
}
