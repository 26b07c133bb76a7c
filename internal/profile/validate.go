package profile

import "strings"

// ValidationMessage is shown when a required field is empty.
const ValidationMessage = "Please fill in all the details above to get the best plan."

// ValidationWarning lists the required fields that were empty at submit time.
// It is recoverable: the user corrects the form and submits again.
type ValidationWarning struct {
	Missing []string
}

func (w *ValidationWarning) Error() string {
	return ValidationMessage + " Missing: " + strings.Join(w.Missing, ", ")
}

// Validate checks that every required field is present. It returns nil or a
// *ValidationWarning. Allergies are optional.
func (r PlanRequest) Validate() *ValidationWarning {
	var missing []string
	if r.Goal.Label() == "" {
		missing = append(missing, FieldGoal)
	}
	if r.WorkoutDays < MinWorkoutDays || r.WorkoutDays > MaxWorkoutDays {
		missing = append(missing, FieldWorkoutDays)
	}
	if strings.TrimSpace(r.Equipment) == "" {
		missing = append(missing, FieldEquipment)
	}
	if r.Diet.Label() == "" {
		missing = append(missing, FieldDiet)
	}
	if r.Budget.Label() == "" {
		missing = append(missing, FieldBudget)
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationWarning{Missing: missing}
}
