package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/skillverse/payments-gateway/internal/ledger"
	"github.com/skillverse/payments-gateway/internal/paystack"
)

// ErrNoPaymentDue is returned when acknowledged progress does not exceed
// paid progress, so there is nothing to collect.
var ErrNoPaymentDue = errors.New("no payment due")

type Gateway interface {
	InitializeTransaction(ctx context.Context, req paystack.InitializeRequest) (*paystack.InitializeResponse, error)
}

// Service computes the amount due from ledger state and opens a hosted
// checkout session. It never mutates the ledger; only reconciliation does.
type Service struct {
	Store       ledger.Store
	Gateway     Gateway
	CallbackURL string
	Log         *logrus.Logger
}

type Session struct {
	CheckoutURL string
	Reference   string
}

func (s *Service) CreateSession(ctx context.Context, email, jobID string) (*Session, error) {
	job, err := s.Store.GetServiceRequest(ctx, jobID)
	if err != nil {
		return nil, err
	}

	progressDelta := job.ProgressActual - job.ProgressPaid
	amountDue := int64(progressDelta) * job.Price / 100
	if amountDue <= 0 {
		return nil, ErrNoPaymentDue
	}

	req := paystack.InitializeRequest{
		Email:       email,
		Amount:      amountDue * 100, // major units -> minor units, exactly once
		CallbackURL: s.CallbackURL,
		Metadata: paystack.Metadata{
			ServiceRequestID: job.ID,
			ProgressDelta:    progressDelta,
			AmountDue:        amountDue,
		},
	}

	resp, err := s.Gateway.InitializeTransaction(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("initialize transaction: %w", err)
	}

	if s.Log != nil {
		s.Log.WithFields(logrus.Fields{
			"job_id":         job.ID,
			"amount_due":     amountDue,
			"progress_delta": progressDelta,
			"reference":      resp.Reference,
		}).Info("checkout session created")
	}

	return &Session{CheckoutURL: resp.AuthorizationURL, Reference: resp.Reference}, nil
}
