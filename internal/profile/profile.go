// Package profile defines the user profile collected by the plan form and
// its presence validation.
package profile

import (
	"net/url"
	"strconv"
	"strings"
)

// Goal is the primary fitness goal.
type Goal string

const (
	GoalLoseWeight    Goal = "lose_weight"
	GoalGainMuscle    Goal = "gain_muscle"
	GoalImproveCardio Goal = "improve_cardio"
	GoalMaintain      Goal = "maintain"
)

// DietPreference is the dietary preference of the user.
type DietPreference string

const (
	DietNone        DietPreference = "none"
	DietVegetarian  DietPreference = "vegetarian"
	DietVegan       DietPreference = "vegan"
	DietPescatarian DietPreference = "pescatarian"
	DietGlutenFree  DietPreference = "gluten_free"
)

// Budget is the approximate weekly food budget.
type Budget string

const (
	BudgetLow    Budget = "low"
	BudgetMedium Budget = "medium"
	BudgetHigh   Budget = "high"
)

const (
	MinWorkoutDays     = 1
	MaxWorkoutDays     = 7
	DefaultWorkoutDays = 3

	DefaultEquipment = "e.g., Dumbbells, resistance bands, yoga mat, or just bodyweight."
)

// Option is a selectable value with its display label.
type Option struct {
	Value string
	Label string
}

var goalLabels = []Option{
	{string(GoalLoseWeight), "Lose Weight"},
	{string(GoalGainMuscle), "Gain Muscle"},
	{string(GoalImproveCardio), "Improve Cardiovascular Health"},
	{string(GoalMaintain), "Maintain Current Fitness"},
}

var dietLabels = []Option{
	{string(DietNone), "No Preference"},
	{string(DietVegetarian), "Vegetarian"},
	{string(DietVegan), "Vegan"},
	{string(DietPescatarian), "Pescatarian"},
	{string(DietGlutenFree), "Gluten-Free"},
}

var budgetLabels = []Option{
	{string(BudgetLow), "Low (Budget-friendly)"},
	{string(BudgetMedium), "Medium (Standard)"},
	{string(BudgetHigh), "High (Flexible)"},
}

// GoalOptions returns the goal choices in display order.
func GoalOptions() []Option { return append([]Option(nil), goalLabels...) }

// DietOptions returns the diet choices in display order.
func DietOptions() []Option { return append([]Option(nil), dietLabels...) }

// BudgetOptions returns the budget choices in display order.
func BudgetOptions() []Option { return append([]Option(nil), budgetLabels...) }

func labelOf(opts []Option, value string) string {
	for _, o := range opts {
		if o.Value == value {
			return o.Label
		}
	}
	return ""
}

func known(opts []Option, value string) bool {
	return labelOf(opts, value) != ""
}

// Label returns the display label, or "" for an unknown goal.
func (g Goal) Label() string { return labelOf(goalLabels, string(g)) }

// Label returns the display label, or "" for an unknown preference.
func (d DietPreference) Label() string { return labelOf(dietLabels, string(d)) }

// Label returns the display label, or "" for an unknown budget.
func (b Budget) Label() string { return labelOf(budgetLabels, string(b)) }

// ParseGoal maps a wire key to a Goal. Unknown keys yield "".
func ParseGoal(s string) Goal {
	s = strings.TrimSpace(s)
	if known(goalLabels, s) {
		return Goal(s)
	}
	return ""
}

// ParseDiet maps a wire key to a DietPreference. Unknown keys yield "".
func ParseDiet(s string) DietPreference {
	s = strings.TrimSpace(s)
	if known(dietLabels, s) {
		return DietPreference(s)
	}
	return ""
}

// ParseBudget maps a wire key to a Budget. Unknown keys yield "".
func ParseBudget(s string) Budget {
	s = strings.TrimSpace(s)
	if known(budgetLabels, s) {
		return Budget(s)
	}
	return ""
}

// PlanRequest is the profile used to build one prompt. It is never persisted.
type PlanRequest struct {
	Goal        Goal           `json:"goal"`
	WorkoutDays int            `json:"workout_days"`
	Equipment   string         `json:"equipment"`
	Diet        DietPreference `json:"diet_preference"`
	Budget      Budget         `json:"budget"`
	Allergies   string         `json:"allergies"`
}

// Default returns the request the form starts with.
func Default() PlanRequest {
	return PlanRequest{
		Goal:        GoalLoseWeight,
		WorkoutDays: DefaultWorkoutDays,
		Equipment:   DefaultEquipment,
		Diet:        DietNone,
		Budget:      BudgetLow,
	}
}

// ClampDays bounds n to [MinWorkoutDays, MaxWorkoutDays]. Zero stays zero so
// that a missing value still fails validation.
func ClampDays(n int) int {
	switch {
	case n == 0:
		return 0
	case n < MinWorkoutDays:
		return MinWorkoutDays
	case n > MaxWorkoutDays:
		return MaxWorkoutDays
	}
	return n
}

// Form field names shared by the web form and FromValues.
const (
	FieldGoal        = "goal"
	FieldWorkoutDays = "workout_days"
	FieldEquipment   = "equipment"
	FieldDiet        = "diet_preference"
	FieldBudget      = "budget"
	FieldAllergies   = "allergies"
)

// FromValues builds a request from submitted form values.
func FromValues(v url.Values) PlanRequest {
	days, err := strconv.Atoi(strings.TrimSpace(v.Get(FieldWorkoutDays)))
	if err != nil {
		days = 0
	}
	return PlanRequest{
		Goal:        ParseGoal(v.Get(FieldGoal)),
		WorkoutDays: ClampDays(days),
		Equipment:   v.Get(FieldEquipment),
		Diet:        ParseDiet(v.Get(FieldDiet)),
		Budget:      ParseBudget(v.Get(FieldBudget)),
		Allergies:   v.Get(FieldAllergies),
	}
}

// Normalize clamps the day count and drops unknown enum values.
func (r PlanRequest) Normalize() PlanRequest {
	r.Goal = ParseGoal(string(r.Goal))
	r.Diet = ParseDiet(string(r.Diet))
	r.Budget = ParseBudget(string(r.Budget))
	r.WorkoutDays = ClampDays(r.WorkoutDays)
	return r
}

// AllergiesOrDefault returns the allergies text, or "None specified" when empty.
func (r PlanRequest) AllergiesOrDefault() string {
	if r.Allergies == "" {
		return "None specified"
	}
	return r.Allergies
}
