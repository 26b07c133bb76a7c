package planner

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"ai-fitness-planner/internal/profile"
)

//go:embed plan_prompt.md
var planPrompt string

var planTemplate = template.Must(template.New("plan").Option("missingkey=error").Parse(planPrompt))

type planPromptData struct {
	Goal           string
	WorkoutDays    int
	Equipment      string
	DietPreference string
	Budget         string
	Allergies      string
}

// BuildPrompt renders the coaching prompt for req. Field values are inserted
// verbatim; empty allergies become "None specified".
func BuildPrompt(req profile.PlanRequest) (string, error) {
	data := planPromptData{
		Goal:           req.Goal.Label(),
		WorkoutDays:    req.WorkoutDays,
		Equipment:      req.Equipment,
		DietPreference: req.Diet.Label(),
		Budget:         req.Budget.Label(),
		Allergies:      req.AllergiesOrDefault(),
	}

	var buf bytes.Buffer
	if err := planTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render plan prompt: %w", err)
	}
	return buf.String(), nil
}
