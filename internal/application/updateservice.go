package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/posixsync/internal/domain/model"
	"github.com/ericfisherdev/posixsync/internal/domain/port/driven"
)

// UpdateService applies every configured target in order: users first, then
// groups. A failed entry never stops the run.
type UpdateService struct {
	users   *UserService
	groups  *GroupService
	runs    driven.RunStore
	targets model.Targets
	now     func() time.Time
}

// NewUpdateService creates an UpdateService. runs may be nil to disable run
// history.
func NewUpdateService(users *UserService, groups *GroupService, runs driven.RunStore, targets model.Targets) *UpdateService {
	return &UpdateService{
		users:   users,
		groups:  groups,
		runs:    runs,
		targets: targets,
		now:     time.Now,
	}
}

// Run processes all targets sequentially and returns the aggregated outcome.
func (s *UpdateService) Run(ctx context.Context) model.RunSummary {
	summary := model.RunSummary{
		Mode:      model.RunModeUpdate,
		StartedAt: s.now(),
	}
	// History writes outlive an interrupted run so the record stays complete.
	storeCtx := context.WithoutCancel(ctx)
	summary.ID = s.startRun(storeCtx, summary)

	slog.Info("updating users", "count", len(s.targets.Users))
	for _, target := range s.targets.Users {
		slog.Info("----- user -----", "user", target.Email)
		s.record(storeCtx, &summary, s.users.Update(ctx, target))
	}

	slog.Info("updating groups", "count", len(s.targets.Groups))
	for _, target := range s.targets.Groups {
		slog.Info("----- group -----", "group", target.Email)
		s.record(storeCtx, &summary, s.groups.Update(ctx, target))
	}

	summary.FinishedAt = s.now()
	if s.runs != nil && summary.ID != 0 {
		if err := s.runs.FinishRun(storeCtx, summary); err != nil {
			slog.Error("failed to finish run record", "run", summary.ID, "error", err)
		}
	}

	slog.Info("run complete",
		"attempted", summary.Attempted(),
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	return summary
}

func (s *UpdateService) startRun(ctx context.Context, summary model.RunSummary) int64 {
	if s.runs == nil {
		return 0
	}
	id, err := s.runs.StartRun(ctx, summary.Mode, summary.StartedAt)
	if err != nil {
		slog.Error("failed to record run start, continuing without history", "error", err)
		return 0
	}
	return id
}

func (s *UpdateService) record(ctx context.Context, summary *model.RunSummary, res model.UpdateResult) {
	if !res.State.Terminal() {
		slog.Warn("entry ended in non-terminal state", "id", res.Identifier, "state", res.State)
	}
	summary.Add(res)
	if s.runs == nil || summary.ID == 0 {
		return
	}
	if err := s.runs.RecordEntry(ctx, summary.ID, res); err != nil {
		slog.Error("failed to record run entry", "run", summary.ID, "id", res.Identifier, "error", err)
	}
}
