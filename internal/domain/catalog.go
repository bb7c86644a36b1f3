package domain

// CatalogService is a service definition owned by the catalog subsystem,
// read-only to this core.
type CatalogService struct {
	ID                       string
	Name                     string
	BasePrice                Money
	EstimatedDurationMinutes int
	IsEmergencyCapable       bool
	EmergencySurchargePct    float64
}

// ServiceOffering says which provider offers which service, optionally at a
// custom price. Also catalog-owned.
type ServiceOffering struct {
	ProviderID  string
	ServiceID   string
	CustomPrice Money // 0 means use the catalog base price
	IsAvailable bool
	IsActive    bool
}

// EffectivePrice returns the offering's custom price when set, otherwise the
// service base price.
func (o *ServiceOffering) EffectivePrice(svc *CatalogService) Money {
	if o.CustomPrice > 0 {
		return o.CustomPrice
	}
	return svc.BasePrice
}
