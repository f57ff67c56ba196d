package recon

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/skillverse/payments-gateway/internal/ledger"
	"github.com/skillverse/payments-gateway/internal/paystack"
)

// Outcome tells the webhook handler how to answer the gateway.
type Outcome int

const (
	// OutcomeIgnored acknowledges the event without mutating the ledger:
	// non-payment event types, redelivered references, and stale or forged
	// payment events. The gateway must not retry these.
	OutcomeIgnored Outcome = iota
	// OutcomeApplied means the ledger counters were updated.
	OutcomeApplied
)

// Engine applies verified payment events to the ledger exactly once per
// gateway reference.
type Engine struct {
	Store ledger.Store
	Log   *logrus.Logger
}

func (e *Engine) Process(ctx context.Context, ev *paystack.Event) (Outcome, error) {
	if ev.Event != paystack.EventChargeSuccess {
		return OutcomeIgnored, nil
	}

	md := ev.Data.Metadata
	reference := ev.Data.Reference

	if reference != "" {
		err := e.Store.ReserveEvent(ctx, ledger.ProcessedEvent{
			Reference:        reference,
			ServiceRequestID: md.ServiceRequestID,
			AmountDue:        md.AmountDue,
		})
		if errors.Is(err, ledger.ErrDuplicateEvent) {
			e.log().WithField("reference", reference).Info("duplicate delivery, already reconciled")
			return OutcomeIgnored, nil
		}
		if err != nil {
			return OutcomeIgnored, fmt.Errorf("reserve event: %w", err)
		}
	}

	updated, err := e.Store.ApplyPayment(ctx, md.ServiceRequestID, ledger.PaymentApplication{
		AmountDue:     md.AmountDue,
		ProgressDelta: md.ProgressDelta,
	})
	if err != nil {
		// The reservation only stands for applied events; releasing it lets
		// the gateway's redelivery retry transient failures.
		if reference != "" {
			if relErr := e.Store.ReleaseEvent(ctx, reference); relErr != nil {
				e.log().WithField("reference", reference).WithError(relErr).Error("failed to release event reservation")
			}
		}
		if errors.Is(err, ledger.ErrProgressConflict) {
			e.log().WithFields(logrus.Fields{
				"job_id":         md.ServiceRequestID,
				"progress_delta": md.ProgressDelta,
				"reference":      reference,
			}).Warn("payment event exceeds acknowledged progress, ignoring")
			return OutcomeIgnored, nil
		}
		return OutcomeIgnored, err
	}

	if ev.Data.Amount != md.AmountDue*100 {
		// amountDue stays authoritative for the counters; a diverging charged
		// amount (fees, partial capture) is surfaced here.
		e.log().WithFields(logrus.Fields{
			"job_id":         md.ServiceRequestID,
			"amount_due":     md.AmountDue,
			"charged_amount": ev.Data.Amount,
			"reference":      reference,
		}).Warn("charged amount diverges from amount due")
	}

	e.log().WithFields(logrus.Fields{
		"job_id":           md.ServiceRequestID,
		"amount_due":       md.AmountDue,
		"progress_paid":    updated.ProgressPaid,
		"payments_made":    updated.PaymentsMade,
		"payments_pending": updated.PaymentsPending,
		"reference":        reference,
	}).Info("payment reconciled")

	return OutcomeApplied, nil
}

func (e *Engine) log() *logrus.Logger {
	if e.Log != nil {
		return e.Log
	}
	return logrus.StandardLogger()
}
