package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/vaccine-scheduling/internal/availability"
	"github.com/hackgods/vaccine-scheduling/internal/config"
	"github.com/hackgods/vaccine-scheduling/internal/db"
	"github.com/hackgods/vaccine-scheduling/internal/logger"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	ReserveRatio float64
	CancelRatio  float64
	ReadRatio    float64
	PatientLimit int
	Password     string
	PostgresDSN  string
}

type patient struct {
	username string
	token    string
}

// DataPool holds what workers pick from. Patients, Dates and Vaccines are
// read-only once the run starts.
type DataPool struct {
	Patients     []patient
	Dates        []string
	Vaccines     []string
	mu           sync.Mutex
	appointments map[string][]int64 // booked ids per patient token
}

func (dp *DataPool) AddAppointment(token string, id int64) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments[token] = append(dp.appointments[token], id)
}

// TakeAppointment removes and returns one booked appointment of any patient.
func (dp *DataPool) TakeAppointment(rng *rand.Rand) (string, int64, bool) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	for token, ids := range dp.appointments {
		if len(ids) == 0 {
			continue
		}
		idx := rng.Intn(len(ids))
		id := ids[idx]
		dp.appointments[token] = append(ids[:idx], ids[idx+1:]...)
		return token, id, true
	}
	return "", 0, false
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
	Reserve  OperationMetrics
	Cancel   OperationMetrics
	Schedule OperationMetrics
	ListMine OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	log     zerolog.Logger
}

func main() {
	log := logger.New(getEnv("APP_ENV", "dev"), "info").With().Str("service", "simulate").Logger()
	log.Info().Msg("simulator starting")

	cfg := loadConfig(log)
	if err := validateConfig(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	log.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("reserve", cfg.ReserveRatio).
		Float64("cancel", cfg.CancelRatio).
		Float64("read", cfg.ReadRatio).
		Msg("config loaded")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pgPool.Close()

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    log,
	}

	sim.pool, err = sim.loadDataPool(ctx, pgPool)
	if err != nil {
		log.Fatal().Err(err).Msg("load data pool")
	}

	log.Info().
		Int("patients", len(sim.pool.Patients)).
		Int("dates", len(sim.pool.Dates)).
		Int("vaccines", len(sim.pool.Vaccines)).
		Msg("data pool loaded")

	sim.Run()
	sim.PrintReport()
}

func loadConfig(log zerolog.Logger) SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load base config")
	}

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		ReserveRatio: getFloat("SIM_RESERVE_RATIO", 0.5),
		CancelRatio:  getFloat("SIM_CANCEL_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 20),
		Password:     getEnv("SIM_PASSWORD", "password123"),
		PostgresDSN:  baseCfg.PostgresDSN,
	}

	// Normalize ratios
	total := cfg.ReserveRatio + cfg.CancelRatio + cfg.ReadRatio
	if total > 0 {
		cfg.ReserveRatio /= total
		cfg.CancelRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	return nil
}

// loadDataPool reads seeded patients, open dates and vaccines, then logs the
// patients in through the API.
func (s *Simulator) loadDataPool(ctx context.Context, pool *pgxpool.Pool) (*DataPool, error) {
	dataPool := &DataPool{appointments: make(map[string][]int64)}

	usernames, err := queryStrings(ctx, pool, `SELECT username FROM patients ORDER BY username LIMIT $1`, s.config.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}

	rows, err := pool.Query(ctx, `
		SELECT DISTINCT time FROM availabilities
		WHERE time >= CURRENT_DATE
		ORDER BY time
	`)
	if err != nil {
		return nil, fmt.Errorf("load dates: %w", err)
	}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Dates = append(dataPool.Dates, d.Format(availability.DateLayout))
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load dates: %w", err)
	}

	dataPool.Vaccines, err = queryStrings(ctx, pool, `SELECT name FROM vaccines WHERE doses > 0 ORDER BY name LIMIT $1`, 100)
	if err != nil {
		return nil, fmt.Errorf("load vaccines: %w", err)
	}

	if len(usernames) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Dates) == 0 {
		return nil, fmt.Errorf("no open dates loaded")
	}
	if len(dataPool.Vaccines) == 0 {
		return nil, fmt.Errorf("no vaccines in stock")
	}

	for _, u := range usernames {
		token, err := s.login(ctx, u)
		if err != nil {
			s.log.Warn().Err(err).Str("patient", u).Msg("login failed, skipping patient")
			continue
		}
		dataPool.Patients = append(dataPool.Patients, patient{username: u, token: token})
	}
	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patient could log in")
	}

	return dataPool, nil
}

func queryStrings(ctx context.Context, pool *pgxpool.Pool, sql string, limit int) ([]string, error) {
	rows, err := pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// login retries on 429 since register/login are rate limited per client.
func (s *Simulator) login(ctx context.Context, username string) (string, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": s.config.Password})

	for attempt := 0; attempt < 10; attempt++ {
		req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/v1/patients/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return "", err
		}

		switch resp.StatusCode {
		case http.StatusOK:
			var tok struct {
				Token string `json:"token"`
			}
			err := json.NewDecoder(resp.Body).Decode(&tok)
			resp.Body.Close()
			return tok.Token, err
		case http.StatusTooManyRequests:
			resp.Body.Close()
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		default:
			resp.Body.Close()
			return "", fmt.Errorf("login status %d", resp.StatusCode)
		}
	}
	return "", fmt.Errorf("login still rate limited")
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.log.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.ReserveRatio:
				s.doReserve(ctx, rng)
			case r < s.config.ReserveRatio+s.config.CancelRatio:
				s.doCancel(ctx, rng)
			case rng.Intn(2) == 0:
				s.doSchedule(ctx, rng)
			default:
				s.doListMine(ctx, rng)
			}
		}
	}
}

// call sends one request and reports status 0 on transport errors.
func (s *Simulator) call(ctx context.Context, method, path, token string, body any, out any) (int, time.Duration) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req, _ := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, latency
}

func (s *Simulator) doReserve(ctx context.Context, rng *rand.Rand) {
	p := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	reqBody := map[string]string{
		"date":    s.pool.Dates[rng.Intn(len(s.pool.Dates))],
		"vaccine": s.pool.Vaccines[rng.Intn(len(s.pool.Vaccines))],
	}

	var appt struct {
		ID int64 `json:"appointment_id"`
	}
	status, latency := s.call(ctx, http.MethodPost, "/v1/appointments", p.token, reqBody, &appt)
	if status == http.StatusCreated && appt.ID > 0 {
		s.pool.AddAppointment(p.token, appt.ID)
	}
	s.metrics.Reserve.Record(latency, status == http.StatusCreated, status == http.StatusConflict)
}

func (s *Simulator) doCancel(ctx context.Context, rng *rand.Rand) {
	token, id, ok := s.pool.TakeAppointment(rng)
	if !ok {
		return
	}

	status, latency := s.call(ctx, http.MethodDelete, "/v1/appointments/"+strconv.FormatInt(id, 10), token, nil, nil)
	s.metrics.Cancel.Record(latency, status == http.StatusOK, status == http.StatusNotFound)
}

func (s *Simulator) doSchedule(ctx context.Context, rng *rand.Rand) {
	p := s.pool.Patients[rng.Intn(len(s.pool.Patients))]
	date := s.pool.Dates[rng.Intn(len(s.pool.Dates))]

	status, latency := s.call(ctx, http.MethodGet, "/v1/schedule?date="+date, p.token, nil, nil)
	s.metrics.Schedule.Record(latency, status == http.StatusOK, false)
}

func (s *Simulator) doListMine(ctx context.Context, rng *rand.Rand) {
	p := s.pool.Patients[rng.Intn(len(s.pool.Patients))]

	status, latency := s.call(ctx, http.MethodGet, "/v1/appointments", p.token, nil, nil)
	s.metrics.ListMine.Record(latency, status == http.StatusOK, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Reserve", &s.metrics.Reserve)
	printOperationReport("Cancel", &s.metrics.Cancel)
	printOperationReport("Search schedule", &s.metrics.Schedule)
	printOperationReport("List my appointments", &s.metrics.ListMine)
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
