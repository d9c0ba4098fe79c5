package worker

// modelUnitPrices is the static per-model price table, in USD per work unit.
var modelUnitPrices = map[string]float64{
	"opus":   15.00,
	"sonnet": 3.00,
	"haiku":  0.25,
}

// defaultUnitPrice is used for models missing from the price table.
const defaultUnitPrice = 3.00

// UnitPrice returns the per-unit price for a model.
func UnitPrice(model string) float64 {
	if price, ok := modelUnitPrices[model]; ok {
		return price
	}
	return defaultUnitPrice
}

// RoleCost is one role's line in a cost estimate.
type RoleCost struct {
	Role  string
	Model string
	Cost  float64
}

// CostEstimate is the per-role cost breakdown for a provisioned roster.
type CostEstimate struct {
	Lines []RoleCost
	Total float64
}

// estimateFor builds a CostEstimate for the given role definitions.
func estimateFor(roles []RoleDefinition) CostEstimate {
	est := CostEstimate{}
	for _, role := range roles {
		cost := UnitPrice(role.Model)
		est.Lines = append(est.Lines, RoleCost{
			Role:  role.Name,
			Model: role.Model,
			Cost:  cost,
		})
		est.Total += cost
	}
	return est
}
