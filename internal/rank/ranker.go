// Package rank orders accepted opportunities for publication.
package rank

import (
	"sort"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// ByNetProfit stable-sorts opportunities by net profit, descending, in
// place. Ties keep their input order, so the result is deterministic for
// identical input.
func ByNetProfit(opps []domain.Opportunity) {
	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].NetProfit > opps[j].NetProfit
	})
}
