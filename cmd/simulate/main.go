package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/hackgods/clinic-slot-booking/internal/appointment"
	"github.com/hackgods/clinic-slot-booking/internal/clinic"
	"github.com/hackgods/clinic-slot-booking/internal/schedule"
)

// Drives concurrent bookings against a running api-server and then checks
// that no slot holds more live appointments than the configured capacity.

type SimConfig struct {
	APIBaseURL   string
	Date         string
	Duration     time.Duration
	Workers      int
	BookingRatio float64
	ReadRatio    float64
	HotSlot      string
	HotRatio     float64
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]

	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking     OperationMetrics
	ReadSlots   OperationMetrics
	ListForDate OperationMetrics
}

type Simulator struct {
	config  SimConfig
	client  *http.Client
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: date=%s duration=%s workers=%d booking=%.2f read=%.2f hot_slot=%s hot=%.2f",
		cfg.Date, cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.ReadRatio, cfg.HotSlot, cfg.HotRatio)

	gofakeit.Seed(time.Now().UnixNano())

	sim := &Simulator{
		config: cfg,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	sim.Run()
	sim.PrintReport()

	over, err := sim.Verify(context.Background())
	if err != nil {
		log.Fatalf("verify: %v", err)
	}
	if over > 0 {
		fmt.Printf("FAIL: %d slot(s) over capacity\n", over)
		os.Exit(1)
	}
	fmt.Println("OK: no slot over capacity")
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Date:         getEnv("SIM_DATE", time.Now().AddDate(0, 0, 1).Format("2006-01-02")),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.6),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.4),
		HotSlot:      getEnv("SIM_HOT_SLOT", "10:00"),
		HotRatio:     getFloat("SIM_HOT_RATIO", 0.5),
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if _, err := clinic.ParseDate(cfg.Date); err != nil {
		return fmt.Errorf("SIM_DATE: %w", err)
	}
	if _, err := clinic.ParseTimeOfDay(cfg.HotSlot); err != nil {
		return fmt.Errorf("SIM_HOT_SLOT: %w", err)
	}
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if rng.Float64() < s.config.BookingRatio {
				s.doBooking(ctx, rng)
			} else if rng.Intn(2) == 0 {
				s.doReadSlots(ctx)
			} else {
				s.doListForDate(ctx)
			}
		}
	}
}

// doBooking aims at the hot slot part of the time so capacity is contended,
// otherwise at a random slot the server still offers.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	at := s.config.HotSlot
	if rng.Float64() >= s.config.HotRatio {
		slots, err := s.fetchSlots(ctx)
		if err != nil || len(slots) == 0 {
			return
		}
		at = slots[rng.Intn(len(slots))].Time
	}

	body, _ := json.Marshal(appointment.BookingRequest{
		UserName:  gofakeit.Name(),
		UserEmail: gofakeit.Email(),
		Date:      s.config.Date,
		Time:      at,
	})

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		success = resp.StatusCode == http.StatusCreated
		conflict = resp.StatusCode == http.StatusConflict
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doReadSlots(ctx context.Context) {
	start := time.Now()
	_, err := s.fetchSlots(ctx)
	s.metrics.ReadSlots.Record(time.Since(start), err == nil, false)
}

func (s *Simulator) doListForDate(ctx context.Context) {
	start := time.Now()
	_, err := s.fetchAppointments(ctx)
	s.metrics.ListForDate.Record(time.Since(start), err == nil, false)
}

func (s *Simulator) fetchSlots(ctx context.Context) ([]schedule.TimeSlot, error) {
	var slots []schedule.TimeSlot
	err := s.getJSON(ctx, "/slots?date="+url.QueryEscape(s.config.Date), &slots)
	return slots, err
}

func (s *Simulator) fetchAppointments(ctx context.Context) ([]appointment.Appointment, error) {
	var list []appointment.Appointment
	err := s.getJSON(ctx, "/appointments?date="+url.QueryEscape(s.config.Date), &list)
	return list, err
}

func (s *Simulator) getJSON(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// Verify counts slots whose live appointments exceed the clinic capacity.
func (s *Simulator) Verify(ctx context.Context) (int, error) {
	var cfg clinic.Config
	if err := s.getJSON(ctx, "/admin/settings", &cfg); err != nil {
		return 0, err
	}
	list, err := s.fetchAppointments(ctx)
	if err != nil {
		return 0, err
	}

	perSlot := make(map[string]int)
	for _, a := range list {
		if a.Live() {
			perSlot[a.Time]++
		}
	}

	over := 0
	for at, n := range perSlot {
		if n > cfg.MaxConcurrentAppointments {
			fmt.Printf("  slot %s %s holds %d (capacity %d)\n", s.config.Date, at, n, cfg.MaxConcurrentAppointments)
			over++
		}
	}
	return over, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(repeat("=", 80))
	fmt.Printf("Date: %s\n", s.config.Date)
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Read slots", &s.metrics.ReadSlots)
	printOperationReport("List for date", &s.metrics.ListForDate)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

// Helper functions

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func repeat(s string, n int) string {
	return strings.Repeat(s, n)
}
