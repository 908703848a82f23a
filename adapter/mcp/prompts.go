package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for common planning workflows.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("daily_planning").
		Description("Review today's schedule, overdue work and conflicts, and adjust priorities before the day starts.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Daily Planning Session", `Help me plan my day. Please:

1. Read today's schedule from the cadence://schedule/today resource
2. Read overdue tasks from cadence://tasks/overdue
3. Read the open tasks from cadence://tasks, ordered by priority score
4. Check cadence://schedule/conflicts for blocks that overlap meetings

Based on this:
- Name the three tasks that matter most today and why their scores put them there
- Point out under-scheduled tasks and suggest which lower-priority work to drop
- If a task's priority is wrong, suggest task.lock with a score, or task.unlock to let it float again
- If calendar events look stale, suggest calendar.sync

Apply changes with the task.*, schedule.* and calendar.* tools only after I confirm.`), nil
		})

	srv.Prompt("weekly_review").
		Description("Look back at the week, clean up the task list, and plan the next week's capacity.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return userPrompt("Weekly Review Session", `Let's do a weekly review. Please:

1. Read this week's schedule from cadence://schedule/week
2. Read all open tasks from cadence://tasks
3. Read the scheduling preferences from cadence://preferences

Help me with:

**Cleanup**
- Tasks that have been rescheduled repeatedly and should be split, delegated or dropped
- Tasks missing an estimate or due date
- Locked priorities that no longer reflect reality

**Next week**
- Whether the open work fits into my working hours
- Which deep work tasks deserve morning blocks
- Any change to working hours worth making with prefs.working_hours

Finish with schedule.recompute once I agree to the changes.`), nil
		})

	srv.Prompt("task_breakdown").
		Description("Split a large task into schedulable pieces with estimates and dependencies.").
		Argument("task_description", "Description of the task to break down", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			desc := args["task_description"]
			if desc == "" {
				desc = "[Please describe the task you want to break down]"
			}
			return userPrompt("Task Breakdown Assistant", fmt.Sprintf(`Help me break down this task:

**Task:** %s

Please:
1. Split it into 3-7 subtasks that each fit in one sitting
2. Give each an estimate in minutes, a work mode (deep-work, admin, reactive, creative) and a cognitive load (light, moderate, heavy)
3. Note which subtasks depend on others
4. Suggest due dates only where a real deadline exists

Once I approve, create each subtask with task.create, passing depends_on for the dependencies.`, desc)), nil
		})

	return nil
}

func userPrompt(description, text string) *mcp.PromptResult {
	return &mcp.PromptResult{
		Description: description,
		Messages: []mcp.PromptMessage{
			{
				Role: string(mcp.RoleUser),
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}
}
