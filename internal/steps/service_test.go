package steps

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/solsticehq/beacon-messaging/pkg/db/models"
	"github.com/solsticehq/beacon-messaging/pkg/enums"
	"github.com/solsticehq/beacon-messaging/pkg/logger"
)

type fakeRepository struct {
	dueEnrollmentsFn func(ctx context.Context, now time.Time, limit int) ([]models.SequenceEnrollment, error)
	activeStepFn     func(ctx context.Context, sequenceID uuid.UUID, stepOrder int) (*models.SequenceStep, error)
	emailTemplateFn  func(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error)
	smsTemplateFn    func(ctx context.Context, id uuid.UUID) (*models.SmsTemplate, error)
	createMessageFn  func(ctx context.Context, message *models.ScheduledMessage) error

	scheduledMessages  []*models.ScheduledMessage
	advancedOrders     map[uuid.UUID]int
	advancedNextAt     map[uuid.UUID]*time.Time
	completedIDs       []uuid.UUID
	bumpedSteps        []uuid.UUID
	completedSequences []uuid.UUID
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		advancedOrders: map[uuid.UUID]int{},
		advancedNextAt: map[uuid.UUID]*time.Time{},
	}
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) DueEnrollments(ctx context.Context, now time.Time, limit int) ([]models.SequenceEnrollment, error) {
	if f.dueEnrollmentsFn != nil {
		return f.dueEnrollmentsFn(ctx, now, limit)
	}
	return nil, nil
}

func (f *fakeRepository) ActiveStep(ctx context.Context, sequenceID uuid.UUID, stepOrder int) (*models.SequenceStep, error) {
	if f.activeStepFn != nil {
		return f.activeStepFn(ctx, sequenceID, stepOrder)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) EmailTemplateByID(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error) {
	if f.emailTemplateFn != nil {
		return f.emailTemplateFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) SmsTemplateByID(ctx context.Context, id uuid.UUID) (*models.SmsTemplate, error) {
	if f.smsTemplateFn != nil {
		return f.smsTemplateFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) CreateScheduledMessage(ctx context.Context, message *models.ScheduledMessage) error {
	if f.createMessageFn != nil {
		if err := f.createMessageFn(ctx, message); err != nil {
			return err
		}
	}
	f.scheduledMessages = append(f.scheduledMessages, message)
	return nil
}

func (f *fakeRepository) AdvanceEnrollment(ctx context.Context, enrollmentID uuid.UUID, stepOrder int, nextStepAt *time.Time) error {
	f.advancedOrders[enrollmentID] = stepOrder
	f.advancedNextAt[enrollmentID] = nextStepAt
	return nil
}

func (f *fakeRepository) CompleteEnrollment(ctx context.Context, enrollmentID uuid.UUID, now time.Time) error {
	f.completedIDs = append(f.completedIDs, enrollmentID)
	return nil
}

func (f *fakeRepository) BumpStepSent(ctx context.Context, stepID uuid.UUID) error {
	f.bumpedSteps = append(f.bumpedSteps, stepID)
	return nil
}

func (f *fakeRepository) BumpSequenceCompleted(ctx context.Context, sequenceID uuid.UUID) error {
	f.completedSequences = append(f.completedSequences, sequenceID)
	return nil
}

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(Params{
		Repo:   repo,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.(*service).now = func() time.Time { return testNow }
	return svc
}

func dueEnrollment(currentStep int) models.SequenceEnrollment {
	due := testNow.Add(-time.Minute)
	return models.SequenceEnrollment{
		ID:               uuid.New(),
		SequenceID:       uuid.New(),
		Email:            "ava@example.com",
		Metadata:         map[string]string{"name": "Ava", "code": "X1"},
		CurrentStepOrder: currentStep,
		Status:           enums.EnrollmentStatusActive,
		NextStepAt:       &due,
		EnrolledAt:       testNow.Add(-2 * time.Hour),
	}
}

func emailStep(sequenceID uuid.UUID, order, delayMinutes int) *models.SequenceStep {
	return &models.SequenceStep{
		ID:           uuid.New(),
		SequenceID:   sequenceID,
		StepOrder:    order,
		Channel:      enums.MessageChannelEmail,
		TemplateID:   uuid.New(),
		DelayMinutes: delayMinutes,
		DelayFrom:    enums.DelayFromPreviousStep,
		Status:       enums.StepStatusActive,
	}
}

func TestProcessDue_BatchSizeValidation(t *testing.T) {
	svc := newTestService(t, newFakeRepository())
	if _, err := svc.ProcessDue(context.Background(), 0); err == nil {
		t.Fatal("expected validation error for zero batch size")
	}
}

func TestProcessDue_AdvancesToNextStep(t *testing.T) {
	enrollment := dueEnrollment(0)
	stepOne := emailStep(enrollment.SequenceID, 1, 0)
	stepTwo := emailStep(enrollment.SequenceID, 2, 45)
	override := "Day two, {{name}}"
	stepOne.SubjectOverride = &override

	text := "Plain {{code}}"
	repo := newFakeRepository()
	repo.dueEnrollmentsFn = func(ctx context.Context, now time.Time, limit int) ([]models.SequenceEnrollment, error) {
		return []models.SequenceEnrollment{enrollment}, nil
	}
	repo.activeStepFn = func(ctx context.Context, sequenceID uuid.UUID, stepOrder int) (*models.SequenceStep, error) {
		switch stepOrder {
		case 1:
			return stepOne, nil
		case 2:
			return stepTwo, nil
		}
		return nil, gorm.ErrRecordNotFound
	}
	repo.emailTemplateFn = func(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error) {
		return &models.EmailTemplate{
			ID:       id,
			Subject:  "Ignored subject",
			HTMLBody: "<p>Hi {{name}}</p>",
			TextBody: &text,
		}, nil
	}
	svc := newTestService(t, repo)

	stats, err := svc.ProcessDue(context.Background(), 10)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Advanced != 1 || stats.Completed != 0 || stats.Failed != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if len(repo.scheduledMessages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(repo.scheduledMessages))
	}
	message := repo.scheduledMessages[0]
	if message.Subject == nil || *message.Subject != "Day two, Ava" {
		t.Fatalf("expected subject override to win, got %v", message.Subject)
	}
	if message.Body != "<p>Hi Ava</p>" {
		t.Fatalf("unexpected body %q", message.Body)
	}
	if message.TextBody == nil || *message.TextBody != "Plain X1" {
		t.Fatalf("unexpected text body %v", message.TextBody)
	}
	if message.RecipientEmail == nil || *message.RecipientEmail != "ava@example.com" {
		t.Fatalf("unexpected recipient %v", message.RecipientEmail)
	}

	if repo.advancedOrders[enrollment.ID] != 1 {
		t.Fatalf("expected step pointer at 1, got %d", repo.advancedOrders[enrollment.ID])
	}
	nextAt := repo.advancedNextAt[enrollment.ID]
	want := testNow.Add(45 * time.Minute)
	if nextAt == nil || !nextAt.Equal(want) {
		t.Fatalf("expected next_step_at %s, got %v", want, nextAt)
	}
	if len(repo.bumpedSteps) != 1 || repo.bumpedSteps[0] != stepOne.ID {
		t.Fatalf("expected step send counter bump, got %v", repo.bumpedSteps)
	}
}

func TestProcessDue_DelayFromEnrollmentAnchor(t *testing.T) {
	enrollment := dueEnrollment(0)
	stepOne := emailStep(enrollment.SequenceID, 1, 0)
	stepTwo := emailStep(enrollment.SequenceID, 2, 3*60)
	stepTwo.DelayFrom = enums.DelayFromEnrollment

	repo := newFakeRepository()
	repo.dueEnrollmentsFn = func(ctx context.Context, now time.Time, limit int) ([]models.SequenceEnrollment, error) {
		return []models.SequenceEnrollment{enrollment}, nil
	}
	repo.activeStepFn = func(ctx context.Context, sequenceID uuid.UUID, stepOrder int) (*models.SequenceStep, error) {
		switch stepOrder {
		case 1:
			return stepOne, nil
		case 2:
			return stepTwo, nil
		}
		return nil, gorm.ErrRecordNotFound
	}
	repo.emailTemplateFn = func(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error) {
		return &models.EmailTemplate{ID: id, Subject: "s", HTMLBody: "b"}, nil
	}
	svc := newTestService(t, repo)

	if _, err := svc.ProcessDue(context.Background(), 10); err != nil {
		t.Fatalf("process: %v", err)
	}

	// Enrolled two hours ago with a three-hour anchor: one hour out.
	want := enrollment.EnrolledAt.Add(3 * time.Hour)
	nextAt := repo.advancedNextAt[enrollment.ID]
	if nextAt == nil || !nextAt.Equal(want) {
		t.Fatalf("expected enrollment-anchored next_step_at %s, got %v", want, nextAt)
	}
}

func TestNextStepTimeClampsPastAnchor(t *testing.T) {
	step := &models.SequenceStep{DelayMinutes: 30, DelayFrom: enums.DelayFromEnrollment}
	enrolledAt := testNow.Add(-2 * time.Hour)
	if got := nextStepTime(step, enrolledAt, testNow); !got.Equal(testNow) {
		t.Fatalf("expected past anchor clamped to now, got %s", got)
	}
}

func TestProcessDue_CompletesAfterFinalStep(t *testing.T) {
	enrollment := dueEnrollment(0)
	stepOne := emailStep(enrollment.SequenceID, 1, 0)

	repo := newFakeRepository()
	repo.dueEnrollmentsFn = func(ctx context.Context, now time.Time, limit int) ([]models.SequenceEnrollment, error) {
		return []models.SequenceEnrollment{enrollment}, nil
	}
	repo.activeStepFn = func(ctx context.Context, sequenceID uuid.UUID, stepOrder int) (*models.SequenceStep, error) {
		if stepOrder == 1 {
			return stepOne, nil
		}
		return nil, gorm.ErrRecordNotFound
	}
	repo.emailTemplateFn = func(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error) {
		return &models.EmailTemplate{ID: id, Subject: "s", HTMLBody: "b"}, nil
	}
	svc := newTestService(t, repo)

	stats, err := svc.ProcessDue(context.Background(), 10)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Completed != 1 || stats.Advanced != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(repo.scheduledMessages) != 1 {
		t.Fatalf("final step message must still be scheduled, got %d", len(repo.scheduledMessages))
	}
	if len(repo.completedIDs) != 1 || repo.completedIDs[0] != enrollment.ID {
		t.Fatalf("expected enrollment completed, got %v", repo.completedIDs)
	}
	if len(repo.completedSequences) != 1 || repo.completedSequences[0] != enrollment.SequenceID {
		t.Fatalf("expected sequence completion bump, got %v", repo.completedSequences)
	}
}

func TestProcessDue_CompletesWhenStepsExhausted(t *testing.T) {
	enrollment := dueEnrollment(3)
	repo := newFakeRepository()
	repo.dueEnrollmentsFn = func(ctx context.Context, now time.Time, limit int) ([]models.SequenceEnrollment, error) {
		return []models.SequenceEnrollment{enrollment}, nil
	}
	svc := newTestService(t, repo)

	stats, err := svc.ProcessDue(context.Background(), 10)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Completed != 1 {
		t.Fatalf("expected completion, got %+v", stats)
	}
	if len(repo.scheduledMessages) != 0 {
		t.Fatalf("no message expected when no step exists")
	}
}

func TestProcessDue_MissingTemplateStillAdvances(t *testing.T) {
	enrollment := dueEnrollment(0)
	stepOne := emailStep(enrollment.SequenceID, 1, 0)
	stepTwo := emailStep(enrollment.SequenceID, 2, 10)

	repo := newFakeRepository()
	repo.dueEnrollmentsFn = func(ctx context.Context, now time.Time, limit int) ([]models.SequenceEnrollment, error) {
		return []models.SequenceEnrollment{enrollment}, nil
	}
	repo.activeStepFn = func(ctx context.Context, sequenceID uuid.UUID, stepOrder int) (*models.SequenceStep, error) {
		switch stepOrder {
		case 1:
			return stepOne, nil
		case 2:
			return stepTwo, nil
		}
		return nil, gorm.ErrRecordNotFound
	}
	svc := newTestService(t, repo)

	stats, err := svc.ProcessDue(context.Background(), 10)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Advanced != 1 || stats.Failed != 0 {
		t.Fatalf("expected advancement past missing template, got %+v", stats)
	}
	if len(repo.scheduledMessages) != 0 {
		t.Fatalf("no message expected for missing template")
	}
	if repo.advancedOrders[enrollment.ID] != 1 {
		t.Fatalf("expected step pointer at 1, got %d", repo.advancedOrders[enrollment.ID])
	}
}

func TestProcessDue_FailureIsolation(t *testing.T) {
	broken := dueEnrollment(0)
	broken.Email = "broken@example.com"
	healthy := dueEnrollment(0)
	brokenStep := emailStep(broken.SequenceID, 1, 0)
	healthyStep := emailStep(healthy.SequenceID, 1, 0)

	repo := newFakeRepository()
	repo.dueEnrollmentsFn = func(ctx context.Context, now time.Time, limit int) ([]models.SequenceEnrollment, error) {
		return []models.SequenceEnrollment{broken, healthy}, nil
	}
	repo.activeStepFn = func(ctx context.Context, sequenceID uuid.UUID, stepOrder int) (*models.SequenceStep, error) {
		if stepOrder != 1 {
			return nil, gorm.ErrRecordNotFound
		}
		if sequenceID == broken.SequenceID {
			return brokenStep, nil
		}
		return healthyStep, nil
	}
	repo.emailTemplateFn = func(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error) {
		return &models.EmailTemplate{ID: id, Subject: "s", HTMLBody: "b"}, nil
	}
	repo.createMessageFn = func(ctx context.Context, message *models.ScheduledMessage) error {
		if message.RecipientEmail != nil && *message.RecipientEmail == broken.Email {
			return errors.New("insert failed")
		}
		return nil
	}
	svc := newTestService(t, repo)

	stats, err := svc.ProcessDue(context.Background(), 10)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Failed != 1 {
		t.Fatalf("expected 1 failure, got %+v", stats)
	}
	if stats.Completed != 1 {
		t.Fatalf("expected healthy enrollment to finish, got %+v", stats)
	}
}

func TestProcessDue_LoadFailure(t *testing.T) {
	repo := newFakeRepository()
	repo.dueEnrollmentsFn = func(ctx context.Context, now time.Time, limit int) ([]models.SequenceEnrollment, error) {
		return nil, errors.New("query failed")
	}
	svc := newTestService(t, repo)

	if _, err := svc.ProcessDue(context.Background(), 10); err == nil {
		t.Fatal("expected load failure to surface")
	}
}
