package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/solsticehq/beacon-messaging/pkg/db"
	"github.com/solsticehq/beacon-messaging/pkg/db/models"
	"github.com/solsticehq/beacon-messaging/pkg/enums"
	pkgerrors "github.com/solsticehq/beacon-messaging/pkg/errors"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
	"github.com/solsticehq/beacon-messaging/pkg/metrics"
	"github.com/solsticehq/beacon-messaging/pkg/pagination"
)

// enrollmentUniqueConstraint is the unique index on (sequence_id, email) that
// turns a repeat enrollment into a no-op.
const enrollmentUniqueConstraint = "idx_enrollments_sequence_email"

// Service is the trigger entry point for business events.
type Service interface {
	TriggerEvent(ctx context.Context, eventName string, payload EventPayload) (*TriggerResult, error)
	ListEnrollments(ctx context.Context, params ListEnrollmentsParams) (*EnrollmentList, error)
}

// TriggerResult aggregates what one event occurrence caused.
type TriggerResult struct {
	RulesFired        int `json:"rulesFired"`
	SequencesEnrolled int `json:"sequencesEnrolled"`
	SequencesExited   int `json:"sequencesExited"`
}

// ListEnrollmentsParams configures pagination for sequence enrollments.
type ListEnrollmentsParams struct {
	SequenceID uuid.UUID
	Limit      int
	Cursor     string
	Status     string
}

// EnrollmentList wraps returned enrollments and the cursor for the next page.
type EnrollmentList struct {
	Items  []models.SequenceEnrollment `json:"items"`
	Cursor string                      `json:"cursor"`
}

// Params wires trigger service dependencies.
type Params struct {
	Repo    Repository
	Logger  *logger.Logger
	Metrics *metrics.EngineMetrics
}

type service struct {
	repo    Repository
	logg    *logger.Logger
	metrics *metrics.EngineMetrics
	now     func() time.Time
}

// NewService wires the event trigger pipeline.
func NewService(params Params) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "engine repository required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:    params.Repo,
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

// TriggerEvent runs the three processing phases for one event occurrence:
// single-fire rules, sequence enrollment, then exit handling. Individual
// rule/sequence/enrollment failures are logged and never surfaced; only an
// empty event name is an error.
func (s *service) TriggerEvent(ctx context.Context, eventName string, payload EventPayload) (*TriggerResult, error) {
	if strings.TrimSpace(eventName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event name required")
	}

	ctx = s.logg.WithEventName(ctx, eventName)
	now := s.now().UTC()

	result := &TriggerResult{
		RulesFired:        s.processRules(ctx, eventName, payload, now),
		SequencesEnrolled: s.processSequences(ctx, eventName, payload, now),
		SequencesExited:   s.processExits(ctx, eventName, payload, now),
	}

	s.metrics.ObserveTrigger(eventName, result.RulesFired, result.SequencesEnrolled, result.SequencesExited)
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"rules_fired":        result.RulesFired,
		"sequences_enrolled": result.SequencesEnrolled,
		"sequences_exited":   result.SequencesExited,
	}), "event processed")

	return result, nil
}

func (s *service) processRules(ctx context.Context, eventName string, payload EventPayload, now time.Time) int {
	rules, err := s.repo.ActiveRulesByEvent(ctx, eventName)
	if err != nil {
		s.logg.Error(ctx, "loading automation rules failed", err)
		return 0
	}

	summary := forEachIsolated(ctx, rules, func(ctx context.Context, rule models.AutomationRule) (Outcome, error) {
		return s.fireRule(ctx, rule, payload, now)
	})
	for _, failure := range summary.failures {
		failCtx := s.logg.WithField(ctx, "rule_id", failure.item.ID.String())
		s.logg.Error(failCtx, "automation rule processing failed", failure.err)
	}
	return summary.matched
}

func (s *service) fireRule(ctx context.Context, rule models.AutomationRule, payload EventPayload, now time.Time) (Outcome, error) {
	if !MatchesConditions(rule.Conditions, payload) {
		return OutcomeSkippedNoMatch, nil
	}

	vars := payload.Variables()
	message := &models.ScheduledMessage{
		MessageType:  rule.Channel,
		ScheduledFor: now.Add(time.Duration(rule.DelayMinutes) * time.Minute),
		Status:       enums.MessageStatusPending,
	}
	if email := payload.Email(); email != "" {
		message.RecipientEmail = &email
	}
	if phone := payload.Phone(); phone != "" {
		message.RecipientPhone = &phone
	}
	if name := payload.Name(); name != "" {
		message.RecipientName = &name
	}
	message.RecipientUserID = payload.UserID()

	switch rule.Channel {
	case enums.MessageChannelEmail:
		template, err := s.repo.EmailTemplateByID(ctx, rule.TemplateID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeSkippedConfig, nil
		}
		if err != nil {
			return OutcomeFailed, fmt.Errorf("loading email template %s: %w", rule.TemplateID, err)
		}
		subject := RenderTemplate(template.Subject, vars)
		message.Subject = &subject
		message.Body = RenderTemplate(template.HTMLBody, vars)
		if template.TextBody != nil {
			text := RenderTemplate(*template.TextBody, vars)
			message.TextBody = &text
		}
		message.EmailTemplateID = &rule.TemplateID

	case enums.MessageChannelSMS:
		template, err := s.repo.SmsTemplateByID(ctx, rule.TemplateID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutcomeSkippedConfig, nil
		}
		if err != nil {
			return OutcomeFailed, fmt.Errorf("loading sms template %s: %w", rule.TemplateID, err)
		}
		message.Body = RenderTemplate(template.Body, vars)
		message.SmsTemplateID = &rule.TemplateID

	default:
		return OutcomeFailed, fmt.Errorf("unknown channel %q", rule.Channel)
	}

	if err := s.repo.CreateScheduledMessage(ctx, message); err != nil {
		return OutcomeFailed, fmt.Errorf("scheduling message: %w", err)
	}

	if err := s.repo.BumpRuleSendStats(ctx, rule.ID, now); err != nil {
		// Counter bump is best effort; the message is already durable.
		s.logg.Warn(s.logg.WithField(ctx, "rule_id", rule.ID.String()), "rule send stats bump failed")
	}
	return OutcomeMatched, nil
}

func (s *service) processSequences(ctx context.Context, eventName string, payload EventPayload, now time.Time) int {
	sequences, err := s.repo.ActiveSequencesByTrigger(ctx, eventName)
	if err != nil {
		s.logg.Error(ctx, "loading sequences failed", err)
		return 0
	}

	summary := forEachIsolated(ctx, sequences, func(ctx context.Context, sequence models.Sequence) (Outcome, error) {
		return s.enroll(ctx, sequence, payload, now)
	})
	for _, failure := range summary.failures {
		failCtx := s.logg.WithSequenceID(ctx, failure.item.ID.String())
		s.logg.Error(failCtx, "sequence enrollment failed", failure.err)
	}
	return summary.matched
}

func (s *service) enroll(ctx context.Context, sequence models.Sequence, payload EventPayload, now time.Time) (Outcome, error) {
	if !MatchesConditions(sequence.TriggerConditions, payload) {
		return OutcomeSkippedNoMatch, nil
	}

	email := payload.Email()
	if email == "" {
		return OutcomeSkippedConfig, nil
	}

	delayMinutes := 0
	firstStep, err := s.repo.FirstActiveStep(ctx, sequence.ID)
	switch {
	case err == nil:
		delayMinutes = firstStep.DelayMinutes
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No active first step; enroll anyway with immediate advancement.
	default:
		return OutcomeFailed, fmt.Errorf("loading first step: %w", err)
	}

	nextStepAt := now.Add(time.Duration(delayMinutes) * time.Minute)
	enrollment := &models.SequenceEnrollment{
		SequenceID:       sequence.ID,
		UserID:           payload.UserID(),
		Email:            email,
		Metadata:         payload.Variables(),
		CurrentStepOrder: 0,
		Status:           enums.EnrollmentStatusActive,
		NextStepAt:       &nextStepAt,
	}
	if phone := payload.Phone(); phone != "" {
		enrollment.Phone = &phone
	}

	if err := s.repo.CreateEnrollment(ctx, enrollment); err != nil {
		if db.IsUniqueViolation(err, enrollmentUniqueConstraint) {
			return OutcomeSkippedDuplicate, nil
		}
		return OutcomeFailed, fmt.Errorf("creating enrollment: %w", err)
	}

	if err := s.repo.BumpSequenceEnrolled(ctx, sequence.ID); err != nil {
		s.logg.Warn(s.logg.WithSequenceID(ctx, sequence.ID.String()), "sequence enrolled counter bump failed")
	}
	return OutcomeMatched, nil
}

func (s *service) processExits(ctx context.Context, eventName string, payload EventPayload, now time.Time) int {
	enrollments, err := s.repo.ActiveEnrollmentsWithSequence(ctx)
	if err != nil {
		s.logg.Error(ctx, "loading active enrollments failed", err)
		return 0
	}

	payloadEmail := payload.Email()
	summary := forEachIsolated(ctx, enrollments, func(ctx context.Context, enrollment models.SequenceEnrollment) (Outcome, error) {
		if !enrollment.Sequence.ExitEvents.Contains(eventName) {
			return OutcomeSkippedNoMatch, nil
		}
		// Exits are scoped to the contact only when the event carries an
		// email. An email-less event cancels every matching enrollment,
		// which is what account-wide signals rely on.
		if payloadEmail != "" && enrollment.Email != "" && enrollment.Email != payloadEmail {
			return OutcomeSkippedNoMatch, nil
		}

		reason := "exit_event: " + eventName
		if err := s.repo.CancelEnrollment(ctx, enrollment.ID, now, reason); err != nil {
			return OutcomeFailed, fmt.Errorf("cancelling enrollment: %w", err)
		}
		return OutcomeMatched, nil
	})
	for _, failure := range summary.failures {
		failCtx := s.logg.WithField(ctx, "enrollment_id", failure.item.ID.String())
		s.logg.Error(failCtx, "sequence exit failed", failure.err)
	}
	return summary.matched
}

func (s *service) ListEnrollments(ctx context.Context, params ListEnrollmentsParams) (*EnrollmentList, error) {
	if params.SequenceID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sequence id required")
	}

	query := listEnrollmentsParams{
		SequenceID: params.SequenceID,
		Limit:      params.Limit,
	}
	if params.Status != "" {
		status, err := enums.ParseEnrollmentStatus(params.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid enrollment status")
		}
		query.Status = status
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListEnrollments(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list enrollments")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &EnrollmentList{Items: rows, Cursor: cursor}, nil
}
