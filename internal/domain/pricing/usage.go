package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UsageOutcome is the result of recording a promotion usage
type UsageOutcome string

// Usage outcomes
const (
	UsageRecorded              UsageOutcome = "recorded"
	UsageAlreadyRecorded       UsageOutcome = "already_recorded"
	UsageLimitExceeded         UsageOutcome = "limit_exceeded"
	UsageCustomerLimitExceeded UsageOutcome = "customer_limit_exceeded"
)

// IsLimit reports whether the outcome is a rejected usage
func (o UsageOutcome) IsLimit() bool {
	return o == UsageLimitExceeded || o == UsageCustomerLimitExceeded
}

// UsageRequest identifies one promotion usage by one order
type UsageRequest struct {
	PromotionID uuid.UUID
	CustomerID  uuid.UUID
	OrderID     uuid.UUID
}

// UsageTracker records promotion usage at order commit.
//
// Record must increment the global and per-customer counters only while they
// are below their caps, atomically with the check, and at most once per
// (promotion, order). A replay of an already recorded order returns
// UsageAlreadyRecorded without touching the counters. Unknown promotions
// return ErrPromotionNotFound.
//
// Price calculation never calls this interface.
type UsageTracker interface {
	Record(ctx context.Context, req UsageRequest) (UsageOutcome, error)
}

// UsageCounter reads tracked usage for eligibility checks.
// UsageCount is the global count held by the tracker, which may be ahead of
// Promotion.CurrentUsageCount when the tracker keeps its own counters.
type UsageCounter interface {
	UsageCount(ctx context.Context, promotionID uuid.UUID) (int, error)
	CustomerUsageCount(ctx context.Context, promotionID, customerID uuid.UUID) (int, error)
}

// UsageStore is a tracker that can also answer usage counts
type UsageStore interface {
	UsageTracker
	UsageCounter
}

// UsageRecordedEvent is announced after a usage was recorded
type UsageRecordedEvent struct {
	PromotionID    uuid.UUID  `json:"promotion_id"`
	CustomerID     uuid.UUID  `json:"customer_id"`
	OrderID        uuid.UUID  `json:"order_id"`
	// HeadquartersID is the topmost parent of the customer, the customer
	// itself when it has none
	HeadquartersID *uuid.UUID `json:"headquarters_id,omitempty"`
	RecordedAt     time.Time  `json:"recorded_at"`
}

// UsageEventPublisher announces recorded usages to other systems
type UsageEventPublisher interface {
	PublishUsageRecorded(ctx context.Context, event UsageRecordedEvent) error
}
