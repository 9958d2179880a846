package billing

import tariff "gd-invoice/internal/tariff/domain"

// BalanceResult reconciles grid consumption against the credits available in the cycle.
type BalanceResult struct {
	ConsumptionFromGrid      float64 `json:"consumption_from_grid"`
	OwnCredits               float64 `json:"own_credits"`
	RemoteCredits            float64 `json:"remote_credits"`
	TotalCredits             float64 `json:"total_credits"`
	CompensatedConsumption   float64 `json:"compensated_consumption"`
	UncompensatedConsumption float64 `json:"uncompensated_consumption"`
	SurplusCredits           float64 `json:"surplus_credits"`
}

// UncompensatedShare returns uncompensated over grid consumption, 0 without grid consumption.
func (b BalanceResult) UncompensatedShare() float64 {
	if b.ConsumptionFromGrid <= 0 {
		return 0
	}
	return b.UncompensatedConsumption / b.ConsumptionFromGrid
}

// PeriodAllocation is the per-period split of consumption.
type PeriodAllocation struct {
	Period         tariff.Period `json:"period"`
	Consumption    float64       `json:"consumption"`
	SelfConsumed   float64       `json:"self_consumed"`
	NetConsumption float64       `json:"net_consumption"`
	Uncompensated  float64       `json:"uncompensated"`
	Compensated    float64       `json:"compensated"`
}

// ComputeBalance aggregates credits, nets them against grid consumption and spreads the
// uncompensated remainder back over the periods in proportion to their net consumption.
func ComputeBalance(in CycleInput) (BalanceResult, []PeriodAllocation) {
	selfConsumed := in.SelfConsumedByPeriod()
	periods := orderedPeriods(in.Consumption, selfConsumed)

	allocations := make([]PeriodAllocation, 0, len(periods))
	var grid float64
	for _, p := range periods {
		consumption := in.Consumption[p]
		self := selfConsumed[p]
		net := consumption - self
		if net < 0 {
			net = 0
		}
		grid += net
		allocations = append(allocations, PeriodAllocation{
			Period:         p,
			Consumption:    consumption,
			SelfConsumed:   self,
			NetConsumption: net,
		})
	}

	own := sumPeriods(in.Injected)
	total := own + in.RemoteCredits
	balance := BalanceResult{
		ConsumptionFromGrid: grid,
		OwnCredits:          own,
		RemoteCredits:       in.RemoteCredits,
		TotalCredits:        total,
	}
	if total >= grid {
		balance.CompensatedConsumption = grid
		balance.SurplusCredits = total - grid
	} else {
		balance.CompensatedConsumption = total
		balance.UncompensatedConsumption = grid - total
	}

	if grid > 0 {
		ratio := balance.UncompensatedConsumption / grid
		for i := range allocations {
			allocations[i].Uncompensated = allocations[i].NetConsumption * ratio
			allocations[i].Compensated = allocations[i].NetConsumption - allocations[i].Uncompensated
		}
	}
	return balance, allocations
}
