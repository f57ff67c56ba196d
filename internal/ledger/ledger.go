package ledger

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a service request or milestone does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrProgressConflict is returned when a payment application would push
	// progressPaid past progressActual. Such an event is stale or forged.
	ErrProgressConflict = errors.New("payment exceeds acknowledged progress")
	// ErrDuplicateEvent is returned when a gateway event reference has already
	// been reserved for reconciliation.
	ErrDuplicateEvent = errors.New("event already processed")
)

type Status string

const (
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
)

type MilestoneStatus string

const (
	MilestonePending   MilestoneStatus = "Pending"
	MilestoneCompleted MilestoneStatus = "Completed"
)

// ServiceRequest is the ledger record for a contracted job. Price and the
// payment counters are held in major currency units. Version is bumped by
// every counter write so concurrent writers are observable.
type ServiceRequest struct {
	ID              string    `bson:"_id" json:"id"`
	ClientEmail     string    `bson:"client_email" json:"clientEmail"`
	Title           string    `bson:"title" json:"title"`
	Price           int64     `bson:"price" json:"price"`
	ProgressActual  int       `bson:"progress_actual" json:"progressActual"`
	ProgressPaid    int       `bson:"progress_paid" json:"progressPaid"`
	PaymentsPending int64     `bson:"payments_pending" json:"paymentsPending"`
	PaymentsMade    int64     `bson:"payments_made" json:"paymentsMade"`
	Status          Status    `bson:"status" json:"status"`
	Version         int64     `bson:"version" json:"version"`
	CreatedAt       time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updatedAt"`
}

type Milestone struct {
	ID          string          `bson:"_id" json:"id"`
	JobID       string          `bson:"job_id" json:"jobId"`
	Description string          `bson:"description" json:"description"`
	DueDate     time.Time       `bson:"due_date" json:"dueDate"`
	Status      MilestoneStatus `bson:"status" json:"status"`
	CreatedAt   time.Time       `bson:"created_at" json:"createdAt"`
}

// ProcessedEvent records a gateway event reference that reconciliation has
// claimed, so redelivered webhooks are applied at most once.
type ProcessedEvent struct {
	Reference        string    `bson:"_id" json:"reference"`
	ServiceRequestID string    `bson:"service_request_id" json:"serviceRequestId"`
	AmountDue        int64     `bson:"amount_due" json:"amountDue"`
	ReceivedAt       time.Time `bson:"received_at" json:"receivedAt"`
}

// PaymentApplication is the counter delta a verified payment event applies.
type PaymentApplication struct {
	AmountDue     int64
	ProgressDelta int
}

type Store interface {
	CreateServiceRequest(ctx context.Context, req *ServiceRequest) error
	GetServiceRequest(ctx context.Context, id string) (*ServiceRequest, error)

	// ApplyPayment atomically decrements paymentsPending and increments
	// progressPaid and paymentsMade. The guard progressPaid+delta <=
	// progressActual is part of the same conditional write; a failing guard
	// yields ErrProgressConflict and no mutation.
	ApplyPayment(ctx context.Context, id string, p PaymentApplication) (*ServiceRequest, error)

	SetProgressActual(ctx context.Context, id string, progress int) error
	SetStatus(ctx context.Context, id string, status Status) error

	InsertMilestones(ctx context.Context, milestones []*Milestone) error
	ListMilestones(ctx context.Context, jobID string) ([]*Milestone, error)
	GetMilestone(ctx context.Context, id string) (*Milestone, error)
	CompleteMilestone(ctx context.Context, id string) (*Milestone, error)

	// ReserveEvent claims a gateway event reference. A second reservation of
	// the same reference yields ErrDuplicateEvent. ReleaseEvent undoes a
	// claim whose application did not go through, so gateway redelivery can
	// retry it.
	ReserveEvent(ctx context.Context, ev ProcessedEvent) error
	ReleaseEvent(ctx context.Context, reference string) error

	Health(ctx context.Context) error
	Close(ctx context.Context) error
}
