package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Task is one named unit of work run on every tick.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Attendant runs its tasks sequentially, in order, once per tick.
type Attendant struct {
	tasks  []Task
	logger *slog.Logger
}

// AttendantConfig holds the thresholds the notification tasks run with.
type AttendantConfig struct {
	MergeRequestStaleDays int
	IssueDueDays          int
}

// NewAttendant builds the standard task list: assignment before notification,
// branch cleanup last.
func NewAttendant(
	mrs *MergeRequestService,
	issues *IssueService,
	branches *BranchService,
	cfg AttendantConfig,
	logger *slog.Logger,
) *Attendant {
	return NewAttendantWithTasks(logger,
		Task{Name: "assign_issues", Run: issues.AssignUnassigned},
		Task{Name: "assign_merge_requests", Run: mrs.AssignStale},
		Task{Name: "notify_issues", Run: func(ctx context.Context) error {
			return issues.NotifyDue(ctx, cfg.IssueDueDays)
		}},
		Task{Name: "notify_merge_requests", Run: func(ctx context.Context) error {
			return mrs.NotifyStale(ctx, cfg.MergeRequestStaleDays)
		}},
		Task{Name: "remove_merged_branches", Run: branches.RemoveMerged},
	)
}

// NewAttendantWithTasks creates an Attendant running tasks in the given order.
func NewAttendantWithTasks(logger *slog.Logger, tasks ...Task) *Attendant {
	return &Attendant{tasks: tasks, logger: logger}
}

// Tasks returns the task names in run order.
func (a *Attendant) Tasks() []string {
	names := make([]string, len(a.tasks))
	for i, t := range a.tasks {
		names[i] = t.Name
	}
	return names
}

// RunOnce runs every task in order and stops at the first error.
func (a *Attendant) RunOnce(ctx context.Context) error {
	start := time.Now()
	a.logger.Info("tick started", "tasks", len(a.tasks))

	for _, t := range a.tasks {
		taskStart := time.Now()
		if err := t.Run(ctx); err != nil {
			return fmt.Errorf("task %s: %w", t.Name, err)
		}
		a.logger.Debug("task complete",
			"task", t.Name,
			"duration", time.Since(taskStart).Round(time.Millisecond),
		)
	}

	a.logger.Info("tick complete", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}
