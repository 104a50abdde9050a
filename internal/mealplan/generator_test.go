package mealplan

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []Food {
	return []Food{
		{ID: 1, Name: "Chicken breast", Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6, Category: "meat"},
		{ID: 2, Name: "Egg white", Calories: 52, Protein: 11, Carbs: 0.7, Fat: 0.2, Category: "eggs", MealType: Breakfast},
		{ID: 3, Name: "Whole wheat bread", Calories: 247, Protein: 13, Carbs: 41, Fat: 3.4, Category: "bakery"},
		{ID: 4, Name: "Pasta", Calories: 371, Protein: 13, Carbs: 75, Fat: 1.5, Category: "grains", MealType: Lunch},
		{ID: 5, Name: "Olive oil", Calories: 884, Protein: 0, Carbs: 0, Fat: 100, Category: "fats"},
		{ID: 6, Name: "Almonds", Calories: 579, Protein: 21, Carbs: 22, Fat: 50, Category: "nuts", MealType: Snack},
		{ID: 7, Name: "Greek yogurt", Calories: 97, Protein: 9, Carbs: 3.6, Fat: 5, Category: "dairy"},
		{ID: 8, Name: "Banana", Calories: 89, Protein: 1.1, Carbs: 23, Fat: 0.3, Category: "fruit", MealType: Snack},
		{ID: 9, Name: "Rice", Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3, Category: "grains"},
		{ID: 10, Name: "Salmon", Calories: 208, Protein: 20, Carbs: 0, Fat: 13, Category: "fish", MealType: Dinner},
		{ID: 11, Name: "Red wine", Calories: 85, Protein: 0.1, Carbs: 2.6, Fat: 0, Category: "Wine"},
		{ID: 12, Name: "Water", Calories: 0, Protein: 0, Carbs: 0, Fat: 0},
	}
}

func testTargets() Targets {
	return Targets{Kcal: 2200, ProteinG: 160, CarbsG: 220, FatG: 70}
}

func TestGenerateRejectsMissingTargets(t *testing.T) {
	t.Parallel()

	_, err := Generate(context.Background(), Targets{}, testCatalog(), Options{})
	require.ErrorIs(t, err, ErrTargetsRequired)

	kcal := 2000.0
	_, err = NewTargets(&kcal, nil, &kcal, &kcal)
	require.ErrorIs(t, err, ErrTargetsRequired)

	zero := 0.0
	_, err = NewTargets(&zero, &kcal, &kcal, &kcal)
	require.ErrorIs(t, err, ErrTargetsRequired)
}

func TestGenerateNoFoods(t *testing.T) {
	t.Parallel()

	_, err := Generate(context.Background(), testTargets(), nil, Options{})
	require.ErrorIs(t, err, ErrNoFoods)

	zeroCal := []Food{{ID: 1, Name: "Water"}}
	_, err = Generate(context.Background(), testTargets(), zeroCal, Options{})
	require.ErrorIs(t, err, ErrNoFoods)
}

func TestGenerateAlcoholOnlyCatalog(t *testing.T) {
	t.Parallel()

	foods := []Food{
		{ID: 1, Name: "Lager", Calories: 43, Carbs: 3.6, Protein: 0.5, Category: "beer"},
		{ID: 2, Name: "Prosecco", Calories: 80, Carbs: 1.5, Category: "Alcolici"},
		{ID: 3, Name: "Negroni", Calories: 180, Carbs: 12, Category: " COCKTAIL "},
	}
	_, err := Generate(context.Background(), testTargets(), foods, Options{Rand: rand.New(rand.NewSource(1))})
	require.ErrorIs(t, err, ErrNoFoods)
}

func TestGeneratePortionsAreClampedAndRounded(t *testing.T) {
	t.Parallel()

	for seed := int64(1); seed <= 25; seed++ {
		plan, err := Generate(context.Background(), testTargets(), testCatalog(), Options{Rand: rand.New(rand.NewSource(seed))})
		require.NoError(t, err)
		require.Len(t, plan.Items, 18)
		for _, it := range plan.Items {
			assert.GreaterOrEqual(t, it.Grams, 30, "seed %d item %+v", seed, it)
			assert.LessOrEqual(t, it.Grams, 400, "seed %d item %+v", seed, it)
			assert.Zero(t, it.Grams%5, "seed %d item %+v", seed, it)
			assert.InDelta(t, it.Food.Calories*float64(it.Grams)/100, it.Calories, 1e-9)
		}
	}
}

func TestGenerateAlwaysReturnsBestEffortPlan(t *testing.T) {
	t.Parallel()

	plan, err := Generate(context.Background(), testTargets(), testCatalog(), Options{
		Attempts:  3,
		Tolerance: 1e-12,
		Rand:      rand.New(rand.NewSource(7)),
	})
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.LessOrEqual(t, plan.Attempts, 3)
	assert.NotEmpty(t, plan.Items)
	assert.Equal(t, plan.Score <= 1e-12, plan.WithinTolerance)
}

func TestGenerateScoreIsMaxAbsoluteError(t *testing.T) {
	t.Parallel()

	plan, err := Generate(context.Background(), testTargets(), testCatalog(), Options{Rand: rand.New(rand.NewSource(3))})
	require.NoError(t, err)

	target := testTargets()
	assert.InDelta(t, (plan.Totals.Calories-target.Kcal)/target.Kcal, plan.Error.Kcal, 1e-9)
	assert.InDelta(t, (plan.Totals.Protein-target.ProteinG)/target.ProteinG, plan.Error.Protein, 1e-9)

	maxAbs := 0.0
	for _, v := range []float64{plan.Error.Kcal, plan.Error.Protein, plan.Error.Carbs, plan.Error.Fat} {
		if v < 0 {
			v = -v
		}
		if v > maxAbs {
			maxAbs = v
		}
	}
	assert.InDelta(t, maxAbs, plan.Score, 1e-12)
}

func TestGenerateZeroMacroTargetContributesNoError(t *testing.T) {
	t.Parallel()

	target := Targets{Kcal: 1800, ProteinG: 120, CarbsG: 0, FatG: 60}
	plan, err := Generate(context.Background(), target, testCatalog(), Options{Rand: rand.New(rand.NewSource(11))})
	require.NoError(t, err)
	assert.Equal(t, 0.0, plan.Error.Carbs)
}

func TestGenerateIsDeterministicForSeed(t *testing.T) {
	t.Parallel()

	a, err := Generate(context.Background(), testTargets(), testCatalog(), Options{Rand: rand.New(rand.NewSource(42))})
	require.NoError(t, err)
	b, err := Generate(context.Background(), testTargets(), testCatalog(), Options{Rand: rand.New(rand.NewSource(42))})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateHonorsDenyListAndMealTypes(t *testing.T) {
	t.Parallel()

	for seed := int64(1); seed <= 15; seed++ {
		plan, err := Generate(context.Background(), testTargets(), testCatalog(), Options{Rand: rand.New(rand.NewSource(seed))})
		require.NoError(t, err)
		for _, it := range plan.Items {
			assert.NotEqual(t, int64(11), it.Food.ID, "wine must never be planned")
			assert.NotEqual(t, int64(12), it.Food.ID, "zero calorie foods are unusable")
			if it.Food.MealType != "" {
				slotMeal := mealForSlot(t, it.Slot)
				assert.Equal(t, slotMeal, it.Food.MealType, "slot %s food %s", it.Slot, it.Food.Name)
			}
		}
	}
}

func mealForSlot(t *testing.T, slot string) MealType {
	t.Helper()
	for _, s := range DefaultSlots() {
		if s.Name == slot {
			return s.Meal
		}
	}
	t.Fatalf("unknown slot %q", slot)
	return ""
}

func TestGenerateAvoidsDuplicateFoodsInSlot(t *testing.T) {
	t.Parallel()

	foods := []Food{
		{ID: 1, Name: "Chicken", Calories: 165, Protein: 31, Fat: 3.6},
		{ID: 2, Name: "Rice", Calories: 130, Protein: 2.7, Carbs: 28, Fat: 0.3},
		{ID: 3, Name: "Olive oil", Calories: 884, Fat: 100},
	}
	plan, err := Generate(context.Background(), testTargets(), foods, Options{Rand: rand.New(rand.NewSource(5))})
	require.NoError(t, err)
	for _, s := range DefaultSlots() {
		items := plan.SlotItems(s.Name)
		require.Len(t, items, 3)
		seen := map[int64]bool{}
		for _, it := range items {
			assert.False(t, seen[it.Food.ID], "duplicate %s in %s", it.Food.Name, s.Name)
			seen[it.Food.ID] = true
		}
	}
}

func TestGenerateKeywordPreference(t *testing.T) {
	t.Parallel()

	plan, err := Generate(context.Background(), testTargets(), testCatalog(), Options{
		Rand:       rand.New(rand.NewSource(9)),
		Preference: DefaultKeywordPreference(),
	})
	require.NoError(t, err)

	for _, it := range plan.SlotItems("Breakfast") {
		switch it.Role {
		case RoleProtein:
			assert.Equal(t, "Egg white", it.Food.Name)
		case RoleCarb:
			assert.True(t, strings.Contains(strings.ToLower(it.Food.Name), "bread"), it.Food.Name)
		}
	}
	for _, it := range plan.SlotItems("Lunch") {
		switch it.Role {
		case RoleProtein:
			assert.Equal(t, "Chicken breast", it.Food.Name)
		case RoleCarb:
			assert.Equal(t, "Pasta", it.Food.Name)
		}
	}
}

func TestGenerateRescalesTowardCalorieTarget(t *testing.T) {
	t.Parallel()

	foods := []Food{
		{ID: 1, Name: "Turkey", Calories: 100, Protein: 20, Fat: 2},
		{ID: 2, Name: "Potato", Calories: 100, Protein: 2, Carbs: 22},
		{ID: 3, Name: "Peanut butter", Calories: 200, Fat: 20},
	}
	slots := []Slot{{Name: "Meal", Share: 1, Main: true}}

	cases := []struct {
		name   string
		kcal   float64
		grams  []int
		totals Totals
	}{
		// 400/400/150g = 1100 kcal, scale 1200/1100: 436 clamps to 400, 164 rounds to 165.
		{name: "within window", kcal: 1200, grams: []int{400, 400, 165}, totals: Totals{Calories: 1130, Protein: 88, Carbs: 88, Fat: 41}},
		// 400/400/250g = 1300 kcal, scale 2000/1300 is above 1.5.
		{name: "above window", kcal: 2000, grams: []int{400, 400, 250}, totals: Totals{Calories: 1300, Protein: 88, Carbs: 88, Fat: 58}},
		// 30/30/30g = 120 kcal, scale 40/120 is below 0.5.
		{name: "below window", kcal: 40, grams: []int{30, 30, 30}, totals: Totals{Calories: 120, Protein: 6.6, Carbs: 6.6, Fat: 6.6}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			targets := Targets{Kcal: tc.kcal, ProteinG: 100, CarbsG: 100, FatG: 50}
			plan, err := Generate(context.Background(), targets, foods, Options{
				Attempts: 1,
				Slots:    slots,
				Rand:     rand.New(rand.NewSource(1)),
			})
			require.NoError(t, err)
			require.Len(t, plan.Items, 3)

			wantRoles := []Role{RoleProtein, RoleCarb, RoleFat}
			for i, it := range plan.Items {
				assert.Equal(t, wantRoles[i], it.Role)
				assert.Equal(t, foods[i].ID, it.Food.ID)
				assert.Equal(t, tc.grams[i], it.Grams, "%s grams", it.Food.Name)
			}
			assert.InDelta(t, tc.totals.Calories, plan.Totals.Calories, 1e-9)
			assert.InDelta(t, tc.totals.Protein, plan.Totals.Protein, 1e-9)
			assert.InDelta(t, tc.totals.Carbs, plan.Totals.Carbs, 1e-9)
			assert.InDelta(t, tc.totals.Fat, plan.Totals.Fat, 1e-9)
			assert.InDelta(t, (tc.totals.Calories-tc.kcal)/tc.kcal, plan.Error.Kcal, 1e-9)
		})
	}
}

func TestGenerateHonorsAllowedCategoriesPerMeal(t *testing.T) {
	t.Parallel()

	foods := []Food{
		{ID: 1, Name: "Greek yogurt", Calories: 97, Protein: 10, Carbs: 3.6, Fat: 2, Category: "dairy"},
		{ID: 2, Name: "Bread", Calories: 247, Protein: 13, Carbs: 41, Fat: 3.4, Category: "bakery"},
		{ID: 3, Name: "Oats", Calories: 389, Protein: 13, Carbs: 66, Fat: 7},
		{ID: 4, Name: "Butter", Calories: 717, Protein: 0.9, Carbs: 0.1, Fat: 81, Category: "fats"},
		{ID: 5, Name: "Cheddar", Calories: 403, Protein: 25, Carbs: 1.3, Fat: 33, Category: "DAIRY"},
		{ID: 6, Name: "Chicken", Calories: 165, Protein: 31, Fat: 3.6, Category: "meat"},
	}
	slots := []Slot{
		{Name: "Breakfast", Share: 0.5, Main: true, Meal: Breakfast},
		{Name: "Dinner", Share: 0.5, Main: true, Meal: Dinner},
	}
	allowed := map[MealType][]string{Breakfast: {" Dairy "}}

	for seed := int64(1); seed <= 10; seed++ {
		plan, err := Generate(context.Background(), testTargets(), foods, Options{
			Attempts:          5,
			Slots:             slots,
			AllowedCategories: allowed,
			Rand:              rand.New(rand.NewSource(seed)),
		})
		require.NoError(t, err)
		for _, it := range plan.SlotItems("Breakfast") {
			assert.Contains(t, []int64{1, 3, 5}, it.Food.ID, "breakfast picked %s", it.Food.Name)
		}
	}

	pool := buildSlotPool(slots[1], foods, allowed[Dinner])
	assert.Len(t, pool.pool, len(foods), "meals without an allowlist keep every food")

	pool = buildSlotPool(slots[0], foods, []string{"seafood"})
	assert.Len(t, pool.pool, len(foods), "an allowlist matching nothing falls back to the meal pool")

	pool = buildSlotPool(slots[0], foods, allowed[Breakfast])
	var ids []int64
	for _, f := range pool.pool {
		ids = append(ids, f.ID)
	}
	assert.Equal(t, []int64{1, 3, 5}, ids)
	require.Len(t, pool.protein, 1)
	assert.Equal(t, int64(1), pool.protein[0].ID)
}

func TestGenerateStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan, err := Generate(ctx, testTargets(), testCatalog(), Options{Tolerance: 1e-12, Rand: rand.New(rand.NewSource(1))})
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, 1, plan.Attempts)
}

func TestClampGrams(t *testing.T) {
	t.Parallel()

	cases := map[float64]int{12: 30, 30: 30, 147: 145, 148: 150, 399: 400, 950: 400}
	for in, want := range cases {
		assert.Equal(t, want, clampGrams(in), "input %v", in)
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+3.2%", FormatDelta(0.032))
	assert.Equal(t, "-5.0%", FormatDelta(-0.05))
	assert.Equal(t, "0.0%", FormatDelta(0))
	assert.Equal(t, "0.0%", FormatDelta(0.00001))
}
