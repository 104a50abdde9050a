package mealplan

import "strings"

// SlotPreference narrows the candidates for one role of a slot. An empty
// result leaves the dominance-based pick in place.
type SlotPreference interface {
	Prefer(slot Slot, role Role, pool []Food) []Food
}

// KeywordPreference matches lower-cased food names against substring terms
// configured per meal and role.
type KeywordPreference map[MealType]map[Role][]string

func (k KeywordPreference) Prefer(slot Slot, role Role, pool []Food) []Food {
	if !slot.Main {
		return nil
	}
	terms := k[slot.Meal][role]
	if len(terms) == 0 {
		return nil
	}
	out := make([]Food, 0)
	for _, f := range pool {
		name := strings.ToLower(f.Name)
		for _, t := range terms {
			if strings.Contains(name, t) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

func DefaultKeywordPreference() KeywordPreference {
	return KeywordPreference{
		Breakfast: {
			RoleProtein: {"albume", "albumi", "egg white", "albumen", "eggwhite"},
			RoleCarb:    {"pane", "bread", "toast", "bagel", "brioche"},
		},
		Lunch: {
			RoleProtein: {
				"chicken", "beef", "pork", "veal", "lamb", "prosciutto", "prosciutti", "carne", "pollo",
				"manzo", "maiale", "agnello", "bistecca", "hamburger", "salame", "salsiccia", "tataki",
			},
			RoleCarb: {
				"pasta", "spaghetti", "penne", "fusilli", "tagliatelle", "maccheroni", "linguine",
				"rigatoni", "farfalle", "lasagna", "gnocchi", "orecchiette",
			},
			RoleFat: {
				"vegetable", "verdure", "verdura", "vegetales", "spinach", "lettuce", "broccoli",
				"zucchini", "zucchine", "peppers", "peperoni", "carrot", "carote", "insalata",
				"spinaci", "cavolo", "pomodoro",
			},
		},
	}
}
