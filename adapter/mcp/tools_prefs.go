package mcp

import (
	"context"
	"fmt"

	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	"github.com/felixgeelhaar/mcp-go"
)

type prefsWorkingHoursInput struct {
	Start      string `json:"start,omitempty"` // HH:MM
	End        string `json:"end,omitempty"`   // HH:MM
	DaysOfWeek []int  `json:"days_of_week,omitempty"`
}

func registerPreferenceTools(srv *mcp.Server, ts toolset) {
	srv.Tool("prefs.show").
		Description("Show the scheduling preferences in effect").
		Handler(func(ctx context.Context, input struct{}) (*schedulingDomain.UserPreferences, error) {
			prefs, err := ts.app.UserPreferences(ctx)
			if err != nil {
				return nil, err
			}
			return &prefs, nil
		})

	srv.Tool("prefs.working_hours").
		Description("Change working hours and days (0 is Sunday), then rebuild the schedule").
		Handler(ts.setWorkingHours)
}

func (ts toolset) setWorkingHours(ctx context.Context, input prefsWorkingHoursInput) (*schedulingDomain.UserPreferences, error) {
	app := ts.app
	if app.Preferences == nil {
		return nil, fmt.Errorf("preferences %w", errNoDatabase)
	}
	prefs, err := app.UserPreferences(ctx)
	if err != nil {
		return nil, err
	}
	if input.Start != "" {
		prefs.WorkingHours.Start = input.Start
	}
	if input.End != "" {
		prefs.WorkingHours.End = input.End
	}
	if input.DaysOfWeek != nil {
		prefs.WorkingHours.DaysOfWeek = input.DaysOfWeek
	}
	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	if err := app.Preferences.Save(ctx, app.CurrentUserID, prefs); err != nil {
		return nil, err
	}
	if app.RecomputeHandler != nil {
		if err := app.RecomputeHandler.Submit(ctx, app.CurrentUserID, schedulingDomain.Rebuild{Time: app.Now()}); err != nil {
			return nil, err
		}
	}
	return &prefs, nil
}
