package web

import (
	"html/template"
	"log"
	"net/http"

	"ai-fitness-planner/internal/metrics"
	"ai-fitness-planner/internal/planner"
	"ai-fitness-planner/internal/profile"

	"github.com/labstack/echo/v4"
)

const (
	fieldFormToken      = "form_token"
	expiredFormMessage  = "Your form has expired. Please review your details and submit again."
	renderFailedMessage = "An error occurred while displaying your plan."
)

type choice struct {
	Value    string
	Label    string
	Selected bool
}

type pageData struct {
	Token       string
	Goals       []choice
	Diets       []choice
	Budgets     []choice
	MinDays     int
	MaxDays     int
	WorkoutDays int
	Equipment   string
	Allergies   string

	Warning  string
	Error    string
	PlanHTML template.HTML
}

func choices(opts []profile.Option, selected string) []choice {
	out := make([]choice, 0, len(opts))
	for _, o := range opts {
		out = append(out, choice{Value: o.Value, Label: o.Label, Selected: o.Value == selected})
	}
	return out
}

func (s *Server) newPage(req profile.PlanRequest) (*pageData, error) {
	token, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}
	days := req.WorkoutDays
	if days == 0 {
		days = profile.DefaultWorkoutDays
	}
	return &pageData{
		Token:       token,
		Goals:       choices(profile.GoalOptions(), string(req.Goal)),
		Diets:       choices(profile.DietOptions(), string(req.Diet)),
		Budgets:     choices(profile.BudgetOptions(), string(req.Budget)),
		MinDays:     profile.MinWorkoutDays,
		MaxDays:     profile.MaxWorkoutDays,
		WorkoutDays: days,
		Equipment:   req.Equipment,
		Allergies:   req.Allergies,
	}, nil
}

func (s *Server) handleForm(c echo.Context) error {
	page, err := s.newPage(profile.Default())
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "index.html", page)
}

// handleSubmit is the submit action of the form. Each call is one
// independent submission.
func (s *Server) handleSubmit(c echo.Context) error {
	values, err := c.FormParams()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	req := profile.FromValues(values)

	page, err := s.newPage(req)
	if err != nil {
		return err
	}

	if err := s.tokens.Verify(values.Get(fieldFormToken)); err != nil {
		log.Printf("Rejected plan form: %v", err)
		page.Warning = expiredFormMessage
		return c.Render(http.StatusOK, "index.html", page)
	}

	result := s.planner.Submit(c.Request().Context(), req)
	switch result.State {
	case planner.StateValidationWarning:
		page.Warning = result.Message
	case planner.StateDisplayError:
		page.Error = result.Message
	case planner.StateDisplayResult:
		html, err := s.renderMarkdown(result.Markdown)
		if err != nil {
			log.Printf("Error rendering plan: %v", err)
			page.Error = renderFailedMessage
			break
		}
		page.PlanHTML = html
	}
	return c.Render(http.StatusOK, "index.html", page)
}

type apiPlanResponse struct {
	Markdown string   `json:"markdown,omitempty"`
	Warning  string   `json:"warning,omitempty"`
	Missing  []string `json:"missing,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// handleAPIPlan is the JSON variant of the submit action. The markdown field
// carries the generated text exactly as returned.
func (s *Server) handleAPIPlan(c echo.Context) error {
	var req profile.PlanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result := s.planner.Submit(c.Request().Context(), req.Normalize())
	switch result.State {
	case planner.StateValidationWarning:
		return c.JSON(http.StatusUnprocessableEntity, apiPlanResponse{Warning: result.Message, Missing: result.Missing})
	case planner.StateDisplayError:
		return c.JSON(http.StatusBadGateway, apiPlanResponse{Error: result.Message})
	default:
		return c.JSON(http.StatusOK, apiPlanResponse{Markdown: result.Markdown})
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"system": metrics.GetSysHealth(s.dataPath),
	})
}
