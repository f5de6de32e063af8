package notify

import (
	"time"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
)

// Rows materialises the plan's emails as pending scheduled_emails rows for
// reservation r.
func (p Plan) Rows(r domain.Reservation, ids domain.IDGenerator, now time.Time) []domain.ScheduledEmail {
	rows := make([]domain.ScheduledEmail, 0, len(p.Schedule))
	for _, e := range p.Schedule {
		rows = append(rows, domain.ScheduledEmail{
			ID:            ids.NewID(),
			RestaurantID:  r.RestaurantID,
			ReservationID: r.ID,
			Kind:          e.Kind,
			Recipient:     e.Recipient,
			ScheduledFor:  e.ScheduledFor,
			Status:        domain.EmailPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}
	return rows
}
