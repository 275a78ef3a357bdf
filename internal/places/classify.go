package places

import "sort"

// typePriority orders Google place types from most to least telling when a
// place carries several.
var typePriority = []string{
	"restaurant", "cafe", "bar", "supermarket", "convenience_store",
	"bakery", "pharmacy", "hospital", "doctor", "bank", "atm", "finance",
	"school", "university", "store", "point_of_interest", "establishment",
}

// BestType picks the most specific type for a place: the first priority
// match, else the place's own first type, else "unknown".
func BestType(p Place) string {
	for _, t := range typePriority {
		if p.HasType(t) {
			return t
		}
	}
	if len(p.Types) > 0 {
		return p.Types[0]
	}
	return "unknown"
}

// PartitionCompetitors splits places into those tagged with businessType and
// the rest. An empty businessType means nothing competes.
func PartitionCompetitors(list []Place, businessType string) (competitors, others []Place) {
	for _, p := range list {
		if businessType != "" && p.HasType(businessType) {
			competitors = append(competitors, p)
		} else {
			others = append(others, p)
		}
	}
	return competitors, others
}

// TypeCount is one entry of a type summary.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// TypeSummary buckets places by their best type, ordered by count
// descending with alphabetical tie-break.
func TypeSummary(list []Place) []TypeCount {
	counts := make(map[string]int)
	for _, p := range list {
		counts[BestType(p)]++
	}

	summary := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		summary = append(summary, TypeCount{Type: t, Count: n})
	}

	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Count != summary[j].Count {
			return summary[i].Count > summary[j].Count
		}
		return summary[i].Type < summary[j].Type
	})
	return summary
}
