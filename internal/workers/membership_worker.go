package workers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"dronemarket_backend/internal/repositories"
)

// MembershipWorker переводит на free пилотов с истекшей платной подпиской
type MembershipWorker struct {
	db        *gorm.DB
	pilotRepo repositories.PilotRepository
	grace     time.Duration
	now       func() time.Time
}

func NewMembershipWorker(db *gorm.DB, pilotRepo repositories.PilotRepository, graceDays int) *MembershipWorker {
	if graceDays < 0 {
		graceDays = 0
	}
	return &MembershipWorker{
		db:        db,
		pilotRepo: pilotRepo,
		grace:     time.Duration(graceDays) * 24 * time.Hour,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (w *MembershipWorker) Name() string { return "membership" }

func (w *MembershipWorker) RunOnce(ctx context.Context) error {
	cutoff := w.now().Add(-w.grace)
	n, err := w.pilotRepo.DowngradeExpiredMemberships(w.db.WithContext(ctx), cutoff)
	record(w.Name(), "downgrade_expired", n, err)
	return err
}
