package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spirithubcafe/spirithubcafe-web-sub001/gateway"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/pay"
	"github.com/spirithubcafe/spirithubcafe-web-sub001/rdx"
)

type slowGateway struct{ done atomic.Int32 }

func (g *slowGateway) InquirePayment(ctx context.Context, orderID string) (*gateway.Inquiry, error) {
	time.Sleep(100 * time.Millisecond)
	g.done.Add(1)
	return &gateway.Inquiry{Result: "SUCCESS", Status: "INITIATED"}, nil
}

type noOrders struct{}

func (noOrders) ApplyPaymentOutcome(context.Context, string, gateway.Settlement) (bool, error) {
	return false, nil
}

type stepServer struct {
	steps *[]string
	err   error
}

func (s *stepServer) Shutdown(context.Context) error {
	*s.steps = append(*s.steps, "server")
	return s.err
}

type stepWorkers struct {
	steps *[]string
	inner interface{ Stop() }
}

func (w stepWorkers) Stop() {
	w.inner.Stop()
	*w.steps = append(*w.steps, "workers")
}

func TestDrainWaitsForQueuedEvents(t *testing.T) {
	gw := &slowGateway{}
	p := pay.NewProcessor(gw, noOrders{}, pay.NewMemoryJournal(), rdx.NewLocalLocker(), 1, 4)
	p.Start(context.Background())
	require.True(t, p.Submit("", "SHC-1"))
	require.True(t, p.Submit("", "SHC-2"))

	var steps []string
	err := drain(context.Background(), &stepServer{steps: &steps}, stepWorkers{steps: &steps, inner: p})
	require.NoError(t, err)
	assert.Equal(t, []string{"server", "workers"}, steps)
	assert.Equal(t, int32(2), gw.done.Load())
	assert.False(t, p.Submit("", "SHC-3"))
}

func TestDrainStopsWorkersWhenShutdownTimesOut(t *testing.T) {
	var steps []string
	p := pay.NewProcessor(&slowGateway{}, noOrders{}, pay.NewMemoryJournal(), nil, 1, 1)
	p.Start(context.Background())

	err := drain(context.Background(), &stepServer{steps: &steps, err: context.DeadlineExceeded}, stepWorkers{steps: &steps, inner: p})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, []string{"server", "workers"}, steps)
}
