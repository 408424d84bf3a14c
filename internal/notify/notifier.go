package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-slot-booking/internal/appointment"
	"github.com/hackgods/clinic-slot-booking/internal/metrics"
)

// Notifier delivers a booking confirmation.
type Notifier interface {
	NotifyBooked(ctx context.Context, appt appointment.Appointment, locale string) error
}

// EmailNotifier renders the confirmation template and hands it to an
// EmailSender.
type EmailNotifier struct {
	sender EmailSender
}

func NewEmailNotifier(sender EmailSender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

func (n *EmailNotifier) NotifyBooked(ctx context.Context, appt appointment.Appointment, locale string) error {
	msg, err := RenderConfirmation(appt, locale)
	if err != nil {
		return err
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send confirmation for %s: %w", appt.ID, err)
	}
	return nil
}

// Dispatcher runs a Notifier off the request path. Each send gets its own
// timeout; failures are logged and counted, never returned.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	metrics  *metrics.BookingMetrics
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(n Notifier, timeout time.Duration, m *metrics.BookingMetrics, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		notifier: n,
		timeout:  timeout,
		metrics:  m,
		log:      log,
	}
}

// Booked implements appointment.Notifier.
func (d *Dispatcher) Booked(appt appointment.Appointment, locale string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.notifier.NotifyBooked(ctx, appt, locale); err != nil {
			d.metrics.ObserveNotify("failed")
			d.log.Warn("booking confirmation failed",
				zap.String("appointment_id", appt.ID),
				zap.String("locale", locale),
				zap.Error(err),
			)
			return
		}
		d.metrics.ObserveNotify("sent")
	}()
}

// Wait blocks until in-flight sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
