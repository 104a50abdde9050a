package mealplan

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultAttempts  = 400
	DefaultTolerance = 0.10

	minGrams = 30
	maxGrams = 400
)

type Options struct {
	Attempts         int
	Tolerance        float64
	Rand             *rand.Rand
	DeniedCategories []string
	// AllowedCategories restricts a meal's slots to the listed categories.
	// Uncategorized foods stay eligible. A meal with no entry, or whose list
	// matches no food, allows all.
	AllowedCategories map[MealType][]string
	Slots             []Slot
	Preference        SlotPreference
	Logger            *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.DeniedCategories == nil {
		o.DeniedCategories = DefaultDeniedCategories()
	}
	if len(o.Slots) == 0 {
		o.Slots = DefaultSlots()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

type slotPool struct {
	slot    Slot
	pool    []Food
	protein []Food
	carb    []Food
	fat     []Food
	snack   []Food
}

type generator struct {
	targets Targets
	opts    Options
	rng     *rand.Rand
	slots   []slotPool
}

// Generate searches for a day of meals whose totals approximate targets. The
// best plan seen is returned even when no attempt lands within tolerance.
// Cancelling ctx stops the search after the current attempt.
func Generate(ctx context.Context, targets Targets, foods []Food, opts Options) (*Plan, error) {
	if err := targets.validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	usable := usableFoods(foods, opts.DeniedCategories)
	if len(usable) == 0 {
		return nil, ErrNoFoods
	}

	g := &generator{targets: targets, opts: opts, rng: opts.Rand}
	for _, s := range opts.Slots {
		g.slots = append(g.slots, buildSlotPool(s, usable, opts.AllowedCategories[s.Meal]))
	}

	var best *Plan
	attempts := 0
	for attempts < opts.Attempts {
		if attempts > 0 && ctx.Err() != nil {
			opts.Logger.Debug("meal plan search cancelled", zap.Int("attempts", attempts), zap.Error(ctx.Err()))
			break
		}
		attempts++
		candidate := g.attempt()
		if best == nil || candidate.Score < best.Score {
			best = candidate
		}
		if candidate.Score <= opts.Tolerance {
			break
		}
	}

	best.Attempts = attempts
	best.WithinTolerance = best.Score <= opts.Tolerance
	opts.Logger.Debug("meal plan generated",
		zap.Int("attempts", attempts),
		zap.Float64("score", best.Score),
		zap.Bool("within_tolerance", best.WithinTolerance),
	)
	return best, nil
}

func usableFoods(foods []Food, denied []string) []Food {
	deny := categorySet(denied)
	out := make([]Food, 0, len(foods))
	for _, f := range foods {
		if f.Calories <= 0 {
			continue
		}
		if cat := normalizeCategory(f.Category); cat != "" {
			if _, ok := deny[cat]; ok {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}

func categorySet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = normalizeCategory(n); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func normalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func buildSlotPool(s Slot, usable []Food, allowed []string) slotPool {
	sp := slotPool{slot: s}
	for _, f := range usable {
		if f.MealType != "" && s.Meal != "" && f.MealType != s.Meal {
			continue
		}
		sp.pool = append(sp.pool, f)
	}
	if allow := categorySet(allowed); len(allow) > 0 {
		var kept []Food
		matched := 0
		for _, f := range sp.pool {
			cat := normalizeCategory(f.Category)
			if _, ok := allow[cat]; ok {
				matched++
			} else if cat != "" {
				continue
			}
			kept = append(kept, f)
		}
		if matched > 0 {
			sp.pool = kept
		}
	}
	if len(sp.pool) == 0 {
		sp.pool = usable
	}

	for _, f := range sp.pool {
		prot := f.Protein * 4
		carb := f.Carbs * 4
		fat := f.Fat * 9
		if prot+carb+fat <= 0 {
			continue
		}
		switch {
		case prot >= carb && prot >= fat:
			sp.protein = append(sp.protein, f)
		case carb >= fat:
			sp.carb = append(sp.carb, f)
		default:
			sp.fat = append(sp.fat, f)
		}
		if carb > prot || fat > prot {
			sp.snack = append(sp.snack, f)
		}
	}
	return sp
}

func (g *generator) attempt() *Plan {
	plan := &Plan{Targets: g.targets}
	for _, sp := range g.slots {
		plan.Items = append(plan.Items, g.assembleSlot(sp)...)
	}

	totals := sumItems(plan.Items)
	if totals.Calories > 0 {
		scale := g.targets.Kcal / totals.Calories
		if scale > 0.5 && scale < 1.5 {
			for i := range plan.Items {
				plan.Items[i] = portion(plan.Items[i].Slot, plan.Items[i].Role, plan.Items[i].Food,
					clampGrams(math.Round(float64(plan.Items[i].Grams)*scale)))
			}
			totals = sumItems(plan.Items)
		}
	}

	plan.Totals = totals
	plan.Error = Deviation{
		Kcal:    (totals.Calories - g.targets.Kcal) / g.targets.Kcal,
		Protein: relativeError(totals.Protein, g.targets.ProteinG),
		Carbs:   relativeError(totals.Carbs, g.targets.CarbsG),
		Fat:     relativeError(totals.Fat, g.targets.FatG),
	}
	plan.Score = math.Max(
		math.Max(math.Abs(plan.Error.Kcal), math.Abs(plan.Error.Protein)),
		math.Max(math.Abs(plan.Error.Carbs), math.Abs(plan.Error.Fat)),
	)
	return plan
}

func (g *generator) assembleSlot(sp slotPool) []Item {
	carbFallback := sp.pool
	fatFallback := sp.pool
	if !sp.slot.Main && len(sp.snack) > 0 {
		carbFallback = sp.snack
		fatFallback = sp.snack
	}

	prot := g.choose(sp.protein, sp.pool)
	carb := g.choose(sp.carb, carbFallback)
	fat := g.choose(sp.fat, fatFallback)

	if g.opts.Preference != nil {
		if c := g.opts.Preference.Prefer(sp.slot, RoleProtein, sp.pool); len(c) > 0 {
			prot = g.choose(c, nil)
		}
		if c := g.opts.Preference.Prefer(sp.slot, RoleCarb, sp.pool); len(c) > 0 {
			carb = g.choose(c, nil)
		}
		if c := g.opts.Preference.Prefer(sp.slot, RoleFat, sp.pool); len(c) > 0 {
			fat = g.choose(c, nil)
		}
	}

	used := map[int64]struct{}{prot.ID: {}}
	if _, dup := used[carb.ID]; dup {
		if alt := excluding(sp.carb, used); len(alt) > 0 {
			carb = g.choose(alt, nil)
		}
	}
	used[carb.ID] = struct{}{}
	if _, dup := used[fat.ID]; dup {
		if alt := excluding(sp.fat, used); len(alt) > 0 {
			fat = g.choose(alt, nil)
		}
	}

	budget := g.targets.Kcal * sp.slot.Share
	return []Item{
		g.portionFor(sp.slot.Name, RoleProtein, prot, budget),
		g.portionFor(sp.slot.Name, RoleCarb, carb, budget),
		g.portionFor(sp.slot.Name, RoleFat, fat, budget),
	}
}

func (g *generator) choose(list, fallback []Food) Food {
	pool := list
	if len(pool) == 0 {
		pool = fallback
	}
	if len(pool) == 1 {
		return pool[0]
	}
	return pool[g.rng.Intn(len(pool))]
}

func (g *generator) portionFor(slot string, role Role, f Food, budget float64) Item {
	kcal := budget * roleShares[role]
	return portion(slot, role, f, clampGrams(math.Round(kcal/f.Calories*100)))
}

func portion(slot string, role Role, f Food, grams int) Item {
	factor := float64(grams) / 100
	return Item{
		Slot:     slot,
		Role:     role,
		Food:     f,
		Grams:    grams,
		Calories: f.Calories * factor,
		Protein:  f.Protein * factor,
		Carbs:    f.Carbs * factor,
		Fat:      f.Fat * factor,
	}
}

// clampGrams bounds a portion to [30, 400] and snaps it to a multiple of 5.
func clampGrams(g float64) int {
	g = math.Max(minGrams, math.Min(maxGrams, g))
	return int(math.Round(g/5) * 5)
}

func excluding(list []Food, used map[int64]struct{}) []Food {
	out := make([]Food, 0, len(list))
	for _, f := range list {
		if _, ok := used[f.ID]; !ok {
			out = append(out, f)
		}
	}
	return out
}

func sumItems(items []Item) Totals {
	var t Totals
	for _, it := range items {
		t.Calories += it.Calories
		t.Protein += it.Protein
		t.Carbs += it.Carbs
		t.Fat += it.Fat
	}
	return t
}

func relativeError(actual, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return (actual - target) / target
}
