package models

type PlanKey string

const (
	PlanMonthly  PlanKey = "mensal"
	PlanLifetime PlanKey = "vitalicio"
)

// Plan is one entry of the storefront catalog. The catalog is built once from
// config and never changes for the life of the process.
type Plan struct {
	Key    PlanKey
	Label  string
	Amount float64
}

type Catalog []Plan

func (c Catalog) ByKey(key PlanKey) (Plan, bool) {
	for _, plan := range c {
		if plan.Key == key {
			return plan, true
		}
	}
	return Plan{}, false
}

// PaymentRecord mirrors one row of the payments table. The row is keyed by the
// gateway-assigned payment id; re-inserting the same id overwrites the row.
type PaymentRecord struct {
	PaymentID string
	UserID    string
	Plan      PlanKey
	Amount    float64
	Status    string
	CreatedAt int64
}
