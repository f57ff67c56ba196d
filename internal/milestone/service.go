package milestone

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/skillverse/payments-gateway/internal/ledger"
)

type Input struct {
	Description string
	DueDate     time.Time
}

// Service maintains milestone state and derives job-wide progress from it.
// Progress is always recomputed from the full milestone set, so completing
// the same milestone twice cannot double count.
type Service struct {
	Store ledger.Store
	Log   *logrus.Logger
}

func (s *Service) Create(ctx context.Context, jobID string, inputs []Input) ([]*ledger.Milestone, error) {
	if _, err := s.Store.GetServiceRequest(ctx, jobID); err != nil {
		return nil, err
	}

	milestones := make([]*ledger.Milestone, 0, len(inputs))
	for _, in := range inputs {
		milestones = append(milestones, &ledger.Milestone{
			JobID:       jobID,
			Description: in.Description,
			DueDate:     in.DueDate,
			Status:      ledger.MilestonePending,
		})
	}

	if err := s.Store.InsertMilestones(ctx, milestones); err != nil {
		return nil, fmt.Errorf("insert milestones: %w", err)
	}
	return milestones, nil
}

func (s *Service) List(ctx context.Context, jobID string) ([]*ledger.Milestone, error) {
	return s.Store.ListMilestones(ctx, jobID)
}

// Complete marks a milestone completed and cascades: recomputes the job's
// acknowledged progress and, when every milestone is done, transitions the
// job status with a distinct update so the transition is observable on its
// own.
func (s *Service) Complete(ctx context.Context, milestoneID string) (*ledger.Milestone, error) {
	completed, err := s.Store.CompleteMilestone(ctx, milestoneID)
	if err != nil {
		return nil, err
	}

	milestones, err := s.Store.ListMilestones(ctx, completed.JobID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}

	done := 0
	for _, m := range milestones {
		if m.Status == ledger.MilestoneCompleted {
			done++
		}
	}

	progress := 0
	if len(milestones) > 0 {
		progress = int(math.Round(float64(done) / float64(len(milestones)) * 100))
	}
	if err := s.Store.SetProgressActual(ctx, completed.JobID, progress); err != nil {
		return nil, fmt.Errorf("set progress: %w", err)
	}

	if len(milestones) > 0 && done == len(milestones) {
		if err := s.Store.SetStatus(ctx, completed.JobID, ledger.StatusCompleted); err != nil {
			return nil, fmt.Errorf("set status: %w", err)
		}
	}

	if s.Log != nil {
		s.Log.WithFields(logrus.Fields{
			"job_id":          completed.JobID,
			"milestone_id":    completed.ID,
			"progress_actual": progress,
		}).Info("milestone completed")
	}

	return completed, nil
}
