package pay

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/db"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/gateway"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/rdx"
)

// Inquirer is the part of the gateway the processor needs.
type Inquirer interface {
	InquirePayment(ctx context.Context, orderID string) (*gateway.Inquiry, error)
}

// OrderUpdater writes a settled gateway outcome onto the local order. It
// reports false when the order already carried that outcome, and
// gateway.ErrAmountMismatch when the settled amount is not the order total.
type OrderUpdater interface {
	ApplyPaymentOutcome(ctx context.Context, orderNumber string, settled gateway.Settlement) (bool, error)
}

var ErrOrderBusy = errors.New("order is being processed by another worker")

const (
	orderLockPrefix = "payment_lock:"
	orderLockTTL    = 30 * time.Second
	processTimeout  = 45 * time.Second

	busyRetryDelay = 2 * time.Second
	busyRetries    = 3
)

type job struct {
	eventID string
	orderID string
	attempt int
}

// Processor settles journaled webhook events off the request path. Each
// event asks the gateway for the order's status and applies it to the
// local order under a per-order lock. Events that fail stay unprocessed in
// the journal for replay.
type Processor struct {
	gw      Inquirer
	orders  OrderUpdater
	journal Journal
	locker  rdx.Locker
	workers int

	queue  chan job
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	newBackOff func() backoff.BackOff
	busyDelay  time.Duration
}

func NewProcessor(gw Inquirer, orders OrderUpdater, journal Journal, locker rdx.Locker, workers, queueSize int) *Processor {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	if locker == nil {
		locker = rdx.NewLocalLocker()
	}
	return &Processor{
		gw:      gw,
		orders:  orders,
		journal: journal,
		locker:  locker,
		workers: workers,
		queue:   make(chan job, queueSize),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxElapsedTime = 10 * time.Second
			return backoff.WithMaxRetries(b, 4)
		},
		busyDelay: busyRetryDelay,
	}
}

// Start launches the workers. They exit once Stop drains the queue.
func (p *Processor) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(worker int) {
			defer p.wg.Done()
			for j := range p.queue {
				jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), processTimeout)
				_, err := p.Process(jobCtx, j.eventID, j.orderID)
				cancel()
				if errors.Is(err, ErrOrderBusy) {
					p.retryBusy(j)
				}
			}
			log.WithField("worker", worker).Debug("Webhook worker stopped")
		}(i)
	}
	log.WithField("workers", p.workers).Info("Webhook processor started")
}

// Submit queues an event without blocking. A full or stopped queue leaves
// the event in the journal for replay.
func (p *Processor) Submit(eventID, orderID string) bool {
	return p.enqueue(job{eventID: eventID, orderID: orderID})
}

func (p *Processor) enqueue(j job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.queue <- j:
		return true
	default:
		log.WithFields(log.Fields{"event_id": j.eventID, "order_id": j.orderID}).
			Warn("Webhook queue full, event left for replay")
		return false
	}
}

// retryBusy queues j again once the worker holding the order lock has had
// time to finish. After busyRetries attempts the event waits for replay.
func (p *Processor) retryBusy(j job) {
	if j.attempt >= busyRetries {
		log.WithFields(log.Fields{"event_id": j.eventID, "order_id": j.orderID}).
			Warn("Order still locked, event left for replay")
		return
	}
	j.attempt++
	time.AfterFunc(p.busyDelay, func() { p.enqueue(j) })
}

// Stop closes the queue and waits for queued events to finish.
func (p *Processor) Stop() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Process settles one journaled event and returns the gateway outcome.
// Re-processing an order that already carries the outcome changes nothing.
func (p *Processor) Process(ctx context.Context, eventID, orderID string) (string, error) {
	logger := log.WithFields(log.Fields{"event_id": eventID, "order_id": orderID})

	release, ok, err := p.locker.Acquire(ctx, orderLockPrefix+orderID, orderLockTTL)
	if err != nil {
		err = errors.Wrap(err, "acquire order lock")
		p.mark(ctx, logger, eventID, "", err)
		return "", err
	}
	if !ok {
		logger.Info("Order locked by another worker")
		p.mark(ctx, logger, eventID, "", ErrOrderBusy)
		return "", ErrOrderBusy
	}
	defer release()

	inq, err := p.gw.InquirePayment(ctx, orderID)
	if err != nil {
		logger.WithError(err).Error("Payment inquiry failed")
		p.mark(ctx, logger, eventID, "", err)
		return "", err
	}

	settled := gateway.SettlementOf(inq)
	outcome := settled.Outcome
	logger = logger.WithFields(log.Fields{"outcome": outcome, "gateway_status": inq.Status})

	switch outcome {
	case gateway.OutcomeSuccess, gateway.OutcomeFailure:
		err = p.applyOutcome(ctx, orderID, settled)
		if err != nil {
			logger.WithError(err).Error("Could not update order with payment outcome")
		} else {
			logger.Info("Payment outcome applied")
		}
	default:
		logger.Info("Payment not settled yet, order left unchanged")
	}

	p.mark(ctx, logger, eventID, outcome, err)
	return outcome, err
}

func (p *Processor) applyOutcome(ctx context.Context, orderID string, settled gateway.Settlement) error {
	op := func() error {
		_, err := p.orders.ApplyPaymentOutcome(ctx, orderID, settled)
		if errors.Is(err, db.ErrNotFound) || errors.Is(err, gateway.ErrAmountMismatch) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(p.newBackOff(), ctx))
}

func (p *Processor) mark(ctx context.Context, logger *log.Entry, eventID, outcome string, procErr error) {
	if eventID == "" {
		return
	}
	if err := p.journal.MarkProcessed(context.WithoutCancel(ctx), eventID, outcome, procErr); err != nil {
		logger.WithError(err).Warn("Could not update webhook journal")
	}
}
