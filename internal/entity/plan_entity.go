// FILE: internal/entity/plan_entity.go
package entity

const PlanFree = "free"

// Plan is one subscription tier. Price is in minor units (cents/paise)
// as expected by the payment gateway.
type Plan struct {
	Slug             string `json:"slug"`
	Name             string `json:"name"`
	Price            int64  `json:"price"`
	MaxRequests      int    `json:"requests"`
	MaxImageRequests int    `json:"image_requests"`
}

// PlanTable maps plan slug -> tier. The table is data, not logic: it can
// be overridden from a JSON file at startup (PLAN_TABLE_PATH).
type PlanTable map[string]Plan

func DefaultPlanTable() PlanTable {
	return PlanTable{
		"free":    {Slug: "free", Name: "Free", Price: 0, MaxRequests: 3, MaxImageRequests: 1},
		"starter": {Slug: "starter", Name: "Starter", Price: 9900, MaxRequests: 10, MaxImageRequests: 3},
		"vision":  {Slug: "vision", Name: "Vision", Price: 14900, MaxRequests: 10, MaxImageRequests: 10},
		"popular": {Slug: "popular", Name: "Popular", Price: 29900, MaxRequests: 60, MaxImageRequests: 15},
		"pro":     {Slug: "pro", Name: "Pro", Price: 49900, MaxRequests: 150, MaxImageRequests: 40},
	}
}

func (t PlanTable) Get(slug string) (Plan, bool) {
	p, ok := t[slug]
	return p, ok
}

// Limits resolves the (text, image) ceilings for a plan slug. Unknown
// slugs fall back to the free tier.
func (t PlanTable) Limits(slug string) (int, int) {
	p, ok := t[slug]
	if !ok {
		p = t[PlanFree]
	}
	return p.MaxRequests, p.MaxImageRequests
}
