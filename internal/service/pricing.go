package service

import (
	"servio/internal/config"
	"servio/internal/domain"
)

// PricingService computes booking totals and the commission split.
type PricingService struct {
	commissionBP int64
	currency     string
}

// NewPricingService creates a new PricingService from platform configuration.
// The commission rate is capped at 100%; the platform can never take more
// than the total.
func NewPricingService(cfg config.PricingConfig) *PricingService {
	commissionPct := cfg.CommissionPct
	if commissionPct > 100 {
		commissionPct = 100
	}
	return &PricingService{
		commissionBP: domain.PctToBasisPoints(commissionPct),
		currency:     cfg.Currency,
	}
}

// Quote is a fully priced booking amount. Commission + ProviderEarnings ==
// Total holds exactly; the split is computed on minor units with half-up
// rounding.
type Quote struct {
	Total            domain.Money
	Commission       domain.Money
	ProviderEarnings domain.Money
	EmergencyApplied bool
	Currency         string
}

// QuoteService prices one booking of the given service. The emergency
// surcharge applies only when requested and the service supports it.
func (s *PricingService) QuoteService(svc *domain.CatalogService, offering *domain.ServiceOffering, isEmergency bool) Quote {
	base := svc.BasePrice
	if offering != nil {
		base = offering.EffectivePrice(svc)
	}
	return s.quote(base, svc.EmergencySurchargePct, isEmergency && svc.IsEmergencyCapable)
}

func (s *PricingService) quote(base domain.Money, surchargePct float64, applyEmergency bool) Quote {
	total := base
	if applyEmergency {
		total = base + base.MulPctBP(domain.PctToBasisPoints(surchargePct))
	}

	commission := total.MulPctBP(s.commissionBP)

	return Quote{
		Total:            total,
		Commission:       commission,
		ProviderEarnings: total - commission,
		EmergencyApplied: applyEmergency,
		Currency:         s.currency,
	}
}

// Currency returns the platform currency code.
func (s *PricingService) Currency() string {
	return s.currency
}
