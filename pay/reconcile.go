package pay

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/gateway"
)

// SweepReport summarizes one reconcile or replay run.
type SweepReport struct {
	Checked  int `json:"checked"`
	Resolved int `json:"resolved"`
	Failed   int `json:"failed"`
}

// SweepOrphans re-checks gateway orders that never got a session. Orders
// the customer somehow settled are applied locally; the rest are marked
// resolved with their gateway status so they stop being retried.
func (p *Processor) SweepOrphans(ctx context.Context, limit int) (SweepReport, error) {
	var report SweepReport
	orphans, err := p.journal.Orphans(ctx, limit)
	if err != nil {
		return report, err
	}

	for _, o := range orphans {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		logger := log.WithField("order_id", o.OrderID)

		inq, err := p.gw.InquirePayment(ctx, o.OrderID)
		if err != nil {
			report.Failed++
			logger.WithError(err).Warn("Orphan inquiry failed")
			continue
		}

		settled := gateway.SettlementOf(inq)
		outcome := settled.Outcome
		if outcome == gateway.OutcomeSuccess || outcome == gateway.OutcomeFailure {
			if err := p.applyOutcome(ctx, o.OrderID, settled); err != nil {
				report.Failed++
				logger.WithError(err).Warn("Could not apply orphan outcome")
				continue
			}
		}
		if outcome == gateway.OutcomePending {
			logger.Info("Orphan still pending at gateway")
			continue
		}

		status := inq.Status
		if status == "" {
			status = outcome
		}
		if err := p.journal.ResolveOrphan(ctx, o.OrderID, status); err != nil {
			report.Failed++
			logger.WithError(err).Warn("Could not resolve orphan")
			continue
		}
		report.Resolved++
		logger.WithField("status", status).Info("Orphan resolved")
	}
	return report, nil
}

// ReplayWebhooks processes journaled events that have not been settled.
func (p *Processor) ReplayWebhooks(ctx context.Context, limit int) (SweepReport, error) {
	var report SweepReport
	events, err := p.journal.Unprocessed(ctx, limit)
	if err != nil {
		return report, err
	}
	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Checked++
		if _, err := p.Process(ctx, ev.ID, ev.OrderID); err != nil {
			report.Failed++
			continue
		}
		report.Resolved++
	}
	log.WithFields(log.Fields{
		"checked":  report.Checked,
		"resolved": report.Resolved,
		"failed":   report.Failed,
	}).Info("Webhook replay finished")
	return report, nil
}
