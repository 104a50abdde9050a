package analytics

const DefaultPhaseKey = "cut"

type Phase struct {
	Key              string  `json:"key"`
	ProteinPerKgLean float64 `json:"protein_per_kg_lean"`
	FatPerKgBody     float64 `json:"fat_per_kg_body"`
	CalorieOffset    int     `json:"calorie_offset"`
}

func DefaultPhases() []Phase {
	return []Phase{
		{Key: "cut", ProteinPerKgLean: 2.1, FatPerKgBody: 0.25, CalorieOffset: -1500},
		{Key: "bulk", ProteinPerKgLean: 1.8, FatPerKgBody: 0.30, CalorieOffset: 500},
		{Key: "refeed", ProteinPerKgLean: 1.9, FatPerKgBody: 0.25, CalorieOffset: 200},
		{Key: "rest", ProteinPerKgLean: 1.9, FatPerKgBody: 0.30, CalorieOffset: -600},
	}
}

func FindPhase(phases []Phase, key string) (Phase, bool) {
	for _, p := range phases {
		if p.Key == key {
			return p, true
		}
	}
	return Phase{}, false
}
