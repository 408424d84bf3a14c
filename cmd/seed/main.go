package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-slot-booking/internal/app"
	"github.com/hackgods/clinic-slot-booking/internal/appointment"
	"github.com/hackgods/clinic-slot-booking/internal/blocking"
	"github.com/hackgods/clinic-slot-booking/internal/config"
	"github.com/hackgods/clinic-slot-booking/internal/logging"
	"github.com/hackgods/clinic-slot-booking/internal/schedule"
)

// Seeds demo data through the services so every record passes the same
// validation and capacity checks as a real request.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	days := getInt("SEED_DAYS", 7)
	perDay := getInt("SEED_APPOINTMENTS_PER_DAY", 6)
	logger.Info("seed starting", zap.Int("days", days), zap.Int("appointments_per_day", perDay))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close(ctx)

	gofakeit.Seed(time.Now().UnixNano())

	start := a.Clock.Now().AddDate(0, 0, 1)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")

		if err := seedBlockedTime(ctx, a.Blocks, date); err != nil {
			logger.Fatal("seed blocked time", zap.String("date", date), zap.Error(err))
		}
		booked, err := seedAppointments(ctx, a, date, perDay)
		if err != nil {
			logger.Fatal("seed appointments", zap.String("date", date), zap.Error(err))
		}
		logger.Info("seeded day", zap.String("date", date), zap.Int("appointments", booked))
	}

	logger.Info("seed complete")
}

var blockReasons = []string{
	"Staff meeting",
	"Equipment maintenance",
	"Doctor on call at hospital",
	"Team training",
	"Supplier visit",
}

// seedBlockedTime blocks one hour on roughly half the days.
func seedBlockedTime(ctx context.Context, blocks *blocking.Registry, date string) error {
	if !gofakeit.Bool() {
		return nil
	}
	hour := gofakeit.Number(14, 15)
	_, err := blocks.Create(ctx, blocking.CreateRequest{
		Date:      date,
		StartTime: fmt.Sprintf("%02d:00", hour),
		EndTime:   fmt.Sprintf("%02d:00", hour+1),
		Reason:    blockReasons[gofakeit.Number(0, len(blockReasons)-1)],
	})
	return err
}

func seedAppointments(ctx context.Context, a *app.App, date string, n int) (int, error) {
	booked := 0
	for booked < n {
		slots, err := a.Slots.Slots(ctx, date, schedule.Bookable)
		if err != nil {
			return booked, err
		}
		if len(slots) == 0 {
			return booked, nil
		}

		slot := slots[gofakeit.Number(0, len(slots)-1)]
		req := appointment.BookingRequest{
			UserName:  gofakeit.Name(),
			UserEmail: gofakeit.Email(),
			Date:      date,
			Time:      slot.Time,
			Reason:    appointment.DefaultReason,
			Language:  "en",
		}
		if gofakeit.Number(1, 10) == 1 {
			req.IsEmergency = true
			req.EmergencyReason = "Severe pain"
		}

		_, err = a.Appointments.Book(ctx, req)
		if errors.Is(err, appointment.ErrSlotUnavailable) || errors.Is(err, appointment.ErrSlotBeingBooked) {
			continue
		}
		if err != nil {
			return booked, err
		}
		booked++
	}
	return booked, nil
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
