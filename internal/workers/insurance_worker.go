package workers

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"dronemarket_backend/internal/events"
	"dronemarket_backend/internal/repositories"
)

// InsuranceWorker гасит истекшие полисы и один раз напоминает о скором истечении
type InsuranceWorker struct {
	db            *gorm.DB
	insuranceRepo repositories.InsuranceRepository
	publisher     events.Publisher
	window        time.Duration
	now           func() time.Time
}

func NewInsuranceWorker(db *gorm.DB, insuranceRepo repositories.InsuranceRepository, publisher events.Publisher, reminderDays int) *InsuranceWorker {
	if publisher == nil {
		publisher = events.Nop()
	}
	if reminderDays <= 0 {
		reminderDays = 30
	}
	return &InsuranceWorker{
		db:            db,
		insuranceRepo: insuranceRepo,
		publisher:     publisher,
		window:        time.Duration(reminderDays) * 24 * time.Hour,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (w *InsuranceWorker) Name() string { return "insurance" }

func (w *InsuranceWorker) RunOnce(ctx context.Context) error {
	db := w.db.WithContext(ctx)
	now := w.now()

	n, deactivateErr := w.insuranceRepo.DeactivateExpired(db, now)
	record(w.Name(), "deactivate_expired", n, deactivateErr)

	sent, remindErr := w.remind(ctx, db, now)
	record(w.Name(), "expiry_reminder", sent, remindErr)

	return errors.Join(deactivateErr, remindErr)
}

// remind - отметка ставится только после публикации, неудачная доставка повторится
func (w *InsuranceWorker) remind(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	policies, err := w.insuranceRepo.FindNeedingReminder(db, now, now.Add(w.window))
	if err != nil {
		return 0, err
	}

	var (
		sent int64
		errs []error
	)
	for _, p := range policies {
		var recipient events.Recipient
		if p.Pilot != nil && p.Pilot.User != nil {
			u := p.Pilot.User
			recipient = events.Recipient{UserID: u.ID, Email: u.Email, Name: u.FullName()}
		}
		ev := events.New(events.InsuranceExpiring, map[string]any{
			"insuranceId":  p.ID,
			"pilotId":      p.PilotID,
			"provider":     p.Provider,
			"policyNumber": p.PolicyNumber,
			"expiryDate":   p.ExpiryDate.Format("2006-01-02"),
		}, recipient)

		if err := w.publisher.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := w.insuranceRepo.MarkReminderSent(db, p.ID, now); err != nil {
			errs = append(errs, err)
			continue
		}
		sent++
	}
	return sent, errors.Join(errs...)
}
