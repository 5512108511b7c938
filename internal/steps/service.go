package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/solsticehq/beacon-messaging/internal/engine"
	"github.com/solsticehq/beacon-messaging/pkg/db/models"
	"github.com/solsticehq/beacon-messaging/pkg/enums"
	pkgerrors "github.com/solsticehq/beacon-messaging/pkg/errors"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

// Service advances active enrollments whose next_step_at has come due: it
// schedules the next step's message, moves the step pointer forward, and
// completes enrollments that have run out of steps.
type Service interface {
	ProcessDue(ctx context.Context, batchSize int) (*Stats, error)
}

// Stats summarizes one advancement pass.
type Stats struct {
	Processed int
	Advanced  int
	Completed int
	Failed    int
}

// Params wires advancement service dependencies.
type Params struct {
	Repo   Repository
	Logger *logger.Logger
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the step advancement worker.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "steps repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo: params.Repo,
		logg: params.Logger,
		now:  time.Now,
	}, nil
}

// ProcessDue handles up to batchSize due enrollments. Failures are isolated
// per enrollment; only the initial load can fail the whole pass.
func (s *service) ProcessDue(ctx context.Context, batchSize int) (*Stats, error) {
	if batchSize <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "batch size must be positive")
	}

	now := s.now().UTC()
	enrollments, err := s.repo.DueEnrollments(ctx, now, batchSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading due enrollments")
	}

	stats := &Stats{Processed: len(enrollments)}
	for _, enrollment := range enrollments {
		itemCtx := s.logg.WithFields(ctx, map[string]any{
			"enrollment_id": enrollment.ID.String(),
			"sequence_id":   enrollment.SequenceID.String(),
		})
		completed, err := s.advance(itemCtx, enrollment, now)
		if err != nil {
			stats.Failed++
			s.logg.Error(itemCtx, "enrollment advancement failed", err)
			continue
		}
		if completed {
			stats.Completed++
		} else {
			stats.Advanced++
		}
	}

	if stats.Processed > 0 {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"processed": stats.Processed,
			"advanced":  stats.Advanced,
			"completed": stats.Completed,
			"failed":    stats.Failed,
		}), "due enrollments processed")
	}
	return stats, nil
}

func (s *service) advance(ctx context.Context, enrollment models.SequenceEnrollment, now time.Time) (completed bool, err error) {
	nextOrder := enrollment.CurrentStepOrder + 1

	step, err := s.repo.ActiveStep(ctx, enrollment.SequenceID, nextOrder)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Steps exhausted (or the next one was deactivated).
		return true, s.complete(ctx, enrollment, now)
	}
	if err != nil {
		return false, fmt.Errorf("loading step %d: %w", nextOrder, err)
	}

	if err := s.scheduleStepMessage(ctx, enrollment, step, now); err != nil {
		return false, err
	}

	following, err := s.repo.ActiveStep(ctx, enrollment.SequenceID, nextOrder+1)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Final step just went out; close the enrollment in the same pass.
		if err := s.repo.AdvanceEnrollment(ctx, enrollment.ID, nextOrder, nil); err != nil {
			return false, fmt.Errorf("advancing enrollment: %w", err)
		}
		return true, s.complete(ctx, enrollment, now)
	}
	if err != nil {
		return false, fmt.Errorf("loading step %d: %w", nextOrder+1, err)
	}

	nextAt := nextStepTime(following, enrollment.EnrolledAt, now)
	if err := s.repo.AdvanceEnrollment(ctx, enrollment.ID, nextOrder, &nextAt); err != nil {
		return false, fmt.Errorf("advancing enrollment: %w", err)
	}
	return false, nil
}

// nextStepTime resolves a step's delay against its configured anchor: the
// original enrollment time or the moment the previous step fired.
func nextStepTime(step *models.SequenceStep, enrolledAt, now time.Time) time.Time {
	delay := time.Duration(step.DelayMinutes) * time.Minute
	if step.DelayFrom == enums.DelayFromEnrollment {
		at := enrolledAt.Add(delay)
		if at.Before(now) {
			return now
		}
		return at
	}
	return now.Add(delay)
}

func (s *service) scheduleStepMessage(ctx context.Context, enrollment models.SequenceEnrollment, step *models.SequenceStep, now time.Time) error {
	vars := map[string]string(enrollment.Metadata)

	message := &models.ScheduledMessage{
		MessageType:  step.Channel,
		ScheduledFor: now,
		Status:       enums.MessageStatusPending,
	}
	if enrollment.Email != "" {
		email := enrollment.Email
		message.RecipientEmail = &email
	}
	message.RecipientPhone = enrollment.Phone
	message.RecipientUserID = enrollment.UserID
	if name, ok := vars["name"]; ok && name != "" {
		message.RecipientName = &name
	}

	switch step.Channel {
	case enums.MessageChannelEmail:
		template, err := s.repo.EmailTemplateByID(ctx, step.TemplateID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Advance past a misconfigured step instead of retrying forever.
			s.logg.Warn(s.logg.WithField(ctx, "template_id", step.TemplateID.String()), "step email template missing, skipping send")
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading email template %s: %w", step.TemplateID, err)
		}
		subjectSource := template.Subject
		if step.SubjectOverride != nil && *step.SubjectOverride != "" {
			subjectSource = *step.SubjectOverride
		}
		subject := engine.RenderTemplate(subjectSource, vars)
		message.Subject = &subject
		message.Body = engine.RenderTemplate(template.HTMLBody, vars)
		if template.TextBody != nil {
			text := engine.RenderTemplate(*template.TextBody, vars)
			message.TextBody = &text
		}
		message.EmailTemplateID = &step.TemplateID

	case enums.MessageChannelSMS:
		template, err := s.repo.SmsTemplateByID(ctx, step.TemplateID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "template_id", step.TemplateID.String()), "step sms template missing, skipping send")
			return nil
		}
		if err != nil {
			return fmt.Errorf("loading sms template %s: %w", step.TemplateID, err)
		}
		message.Body = engine.RenderTemplate(template.Body, vars)
		message.SmsTemplateID = &step.TemplateID

	default:
		return fmt.Errorf("unknown channel %q", step.Channel)
	}

	if err := s.repo.CreateScheduledMessage(ctx, message); err != nil {
		return fmt.Errorf("scheduling step message: %w", err)
	}
	if err := s.repo.BumpStepSent(ctx, step.ID); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "step_id", step.ID.String()), "step sent counter bump failed")
	}
	return nil
}

func (s *service) complete(ctx context.Context, enrollment models.SequenceEnrollment, now time.Time) error {
	if err := s.repo.CompleteEnrollment(ctx, enrollment.ID, now); err != nil {
		return fmt.Errorf("completing enrollment: %w", err)
	}
	if err := s.repo.BumpSequenceCompleted(ctx, enrollment.SequenceID); err != nil {
		s.logg.Warn(ctx, "sequence completed counter bump failed")
	}
	s.logg.Info(ctx, "enrollment completed")
	return nil
}
