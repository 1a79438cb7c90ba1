package services

import (
	"context"

	"eventboard/internal/domain"
)

// CapacityLedger answers how much of an event's participant limit is
// consumed. The count is recomputed from the request rows inside the caller's
// admission transaction on every decision; no counter is cached across
// requests, so concurrent admissions always observe the latest committed
// state under the event lock.
type CapacityLedger struct{}

// ConsumedCount returns the number of requests holding a capacity-consuming
// status (CONFIRMED or ACCEPTED) for the locked event.
func (CapacityLedger) ConsumedCount(ctx context.Context, tx domain.AdmissionTx) (int, error) {
	return tx.CountByStatuses(ctx, domain.CapacityConsumingStatuses...)
}

// HasRoom reports whether the event can admit one more participant given the
// consumed count. A participant limit of 0 means unlimited.
func (CapacityLedger) HasRoom(event *domain.Event, consumed int) bool {
	return event.ParticipantLimit == 0 || consumed < event.ParticipantLimit
}
