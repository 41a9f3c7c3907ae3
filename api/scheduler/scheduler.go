package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/court-case-api/databases"
	"github.com/linesmerrill/court-case-api/models"
	templates "github.com/linesmerrill/court-case-api/templates/html"
)

const (
	reminderJob     = "hearing_reminder_job"
	reminderWindow  = 24 * time.Hour
	reminderLockTTL = 10 * time.Minute
	reminderTimeout = 5 * time.Minute
)

// ReminderRecorder counts reminder deliveries
type ReminderRecorder interface {
	ReminderDelivered(outcome models.NotificationStatus)
}

type noopReminderRecorder struct{}

func (noopReminderRecorder) ReminderDelivered(models.NotificationStatus) {}

// Scheduler runs the periodic hearing reminder job
type Scheduler struct {
	cron     *cron.Cron
	schedule string

	CaseDB  databases.CaseDatabase
	UDB     databases.UserDatabase
	LockDB  databases.SchedulerLockDatabase
	Mailer  Mailer
	Metrics ReminderRecorder

	instanceID string
	now        func() time.Time
}

// NewScheduler creates a scheduler that sends reminders on the given cron schedule (UTC)
func NewScheduler(
	schedule string,
	caseDB databases.CaseDatabase,
	uDB databases.UserDatabase,
	lockDB databases.SchedulerLockDatabase,
	mailer Mailer,
	metrics ReminderRecorder,
) *Scheduler {
	if metrics == nil {
		metrics = noopReminderRecorder{}
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		schedule:   schedule,
		CaseDB:     caseDB,
		UDB:        uDB,
		LockDB:     lockDB,
		Mailer:     mailer,
		Metrics:    metrics,
		instanceID: uuid.NewString(),
		now:        time.Now,
	}
}

// Start registers the reminder job and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runReminders); err != nil {
		return fmt.Errorf("failed to register hearing reminder job: %w", err)
	}
	s.cron.Start()
	zap.S().Infow("hearing reminder scheduler started",
		"schedule", s.schedule,
		"instance", s.instanceID)
	return nil
}

// Stop waits for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("hearing reminder scheduler stopped")
}

func (s *Scheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), reminderTimeout)
	defer cancel()
	if _, err := s.SendHearingReminders(ctx); err != nil {
		zap.S().Errorw("hearing reminder job failed", "error", err)
	}
}

// SendHearingReminders emails every party and lawyer of cases heard within the next
// day that have not been reminded for their current hearing. It returns how many
// cases were processed; zero with a nil error means another instance holds the lock.
func (s *Scheduler) SendHearingReminders(ctx context.Context) (int, error) {
	acquired, err := s.LockDB.TryAcquireLock(ctx, reminderJob, s.instanceID, reminderLockTTL)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		zap.S().Debug("hearing reminder job already running on another instance, skipping")
		return 0, nil
	}
	defer func() {
		if err := s.LockDB.ReleaseLock(context.Background(), reminderJob, s.instanceID); err != nil {
			zap.S().Warnw("failed to release reminder lock", "error", err)
		}
	}()

	now := s.now().UTC()
	due, err := s.CaseDB.Find(ctx, dueFilter(now))
	if err != nil {
		return 0, fmt.Errorf("failed to find upcoming hearings: %w", err)
	}
	zap.S().Infow("running hearing reminder job",
		"instance", s.instanceID,
		"cases", len(due))

	for _, c := range due {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		s.remind(ctx, c, now)
	}
	return len(due), nil
}

// dueFilter matches active cases whose next hearing falls in [now, now+24h) and whose
// reminder for that hearing has not gone out; scheduling a hearing resets the status
func dueFilter(now time.Time) bson.M {
	return bson.M{
		"courtCase.isActive": true,
		"courtCase.nextHearing.date": bson.M{
			"$gte": primitive.NewDateTimeFromTime(now),
			"$lt":  primitive.NewDateTimeFromTime(now.Add(reminderWindow)),
		},
		"courtCase.notificationStatus": bson.M{"$ne": models.NotificationSent},
	}
}

func (s *Scheduler) remind(ctx context.Context, c models.CourtCase, now time.Time) {
	recipients, err := s.recipients(ctx, c.Details)
	if err != nil {
		zap.S().Errorw("failed to resolve reminder recipients",
			"case", c.Details.CaseNumber,
			"error", err)
		s.markNotified(ctx, c, models.NotificationFailed, nil, now)
		return
	}

	reminded := make(map[string]bool, len(c.Details.RemindedUsers))
	for _, id := range c.Details.RemindedUsers {
		reminded[id] = true
	}

	status := models.NotificationSent
	var delivered []string
	for _, u := range recipients {
		if reminded[u.ID.Hex()] {
			continue
		}
		reminder := templates.HearingReminder{
			RecipientName: u.Details.FullName(),
			CaseNumber:    c.Details.CaseNumber,
			CaseTitle:     c.Details.Title,
			Date:          c.Details.NextHearing.Date.Time().UTC().Format("2006-01-02"),
			Time:          c.Details.NextHearing.Time,
			CourtRoom:     c.Details.NextHearing.CourtRoom,
			Purpose:       string(c.Details.NextHearing.Purpose),
		}
		err := s.Mailer.Send(ctx, u.Details.Email, u.Details.FullName(), reminder.Subject(),
			templates.RenderHearingReminderEmail(reminder), reminder.PlainText())
		if err != nil {
			zap.S().Warnw("failed to send hearing reminder",
				"case", c.Details.CaseNumber,
				"user", u.ID.Hex(),
				"error", err)
			s.Metrics.ReminderDelivered(models.NotificationFailed)
			status = models.NotificationFailed
			continue
		}
		s.Metrics.ReminderDelivered(models.NotificationSent)
		delivered = append(delivered, u.ID.Hex())
	}
	s.markNotified(ctx, c, status, delivered, now)
}

// recipients loads the active parties and lawyers of the case, each once
func (s *Scheduler) recipients(ctx context.Context, d models.CourtCaseDetails) ([]models.User, error) {
	seen := map[string]bool{}
	var ids []primitive.ObjectID
	add := func(hex string) {
		if hex == "" || seen[hex] {
			return
		}
		seen[hex] = true
		if oid, err := primitive.ObjectIDFromHex(hex); err == nil {
			ids = append(ids, oid)
		}
	}
	for _, p := range d.Parties {
		add(p.UserID)
	}
	for _, l := range d.Lawyers() {
		add(l)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return s.UDB.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "user.isActive": true})
}

// markNotified records the delivery outcome for the version of the case that was
// read. If a lifecycle write landed in between (a new hearing resets the reminder
// state) the update matches nothing and the next run picks the case up again.
// The version bump makes a concurrent lifecycle write reload instead of
// overwriting the outcome.
func (s *Scheduler) markNotified(ctx context.Context, c models.CourtCase, status models.NotificationStatus, delivered []string, now time.Time) {
	update := bson.M{
		"$set": bson.M{
			"courtCase.lastNotificationSent": primitive.NewDateTimeFromTime(now),
			"courtCase.notificationStatus":   status,
		},
		"$inc": bson.M{"__v": 1},
	}
	if len(delivered) > 0 {
		update["$addToSet"] = bson.M{"courtCase.remindedUsers": bson.M{"$each": delivered}}
	}
	matched, err := s.CaseDB.UpdateOne(ctx, bson.M{"_id": c.ID, "__v": c.Version}, update)
	if err != nil {
		zap.S().Errorw("failed to record reminder status",
			"case", c.Details.CaseNumber,
			"status", status,
			"error", err)
		return
	}
	if matched == 0 {
		zap.S().Warnw("case changed while reminding, outcome not recorded",
			"case", c.Details.CaseNumber,
			"version", c.Version,
			"status", status)
	}
}
