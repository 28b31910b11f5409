package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackgods/vaccine-scheduling/internal/availability"
	"github.com/hackgods/vaccine-scheduling/internal/db"
	"github.com/hackgods/vaccine-scheduling/internal/logger"
)

// every seeded account shares this password so the simulator can log in
const seedPassword = "password123"

func main() {
	log := logger.New(os.Getenv("APP_ENV"), "info").With().Str("service", "seed").Logger()
	log.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	gofakeit.Seed(time.Now().UnixNano())

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash seed password")
	}

	caregivers, err := seedAccounts(context.Background(), pool, log, "caregivers", 50, string(hash))
	if err != nil {
		log.Fatal().Err(err).Msg("seed caregivers")
	}
	if _, err := seedAccounts(context.Background(), pool, log, "patients", 2000, string(hash)); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedAvailability(context.Background(), pool, log, caregivers, 14); err != nil {
		log.Fatal().Err(err).Msg("seed availability")
	}
	if err := seedVaccines(context.Background(), pool, log); err != nil {
		log.Fatal().Err(err).Msg("seed vaccines")
	}

	log.Info().Str("password", seedPassword).Msg("seed complete")
}

// seedAccounts inserts count accounts into table in batches and returns their usernames.
func seedAccounts(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, table string, count int, hash string) ([]string, error) {
	log.Info().Int("count", count).Msgf("seeding %s", table)

	const batchSize = 500

	names := make([]string, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			username := fmt.Sprintf("%s%d", strings.ToLower(gofakeit.Username()), i)

			_, err := tx.Exec(ctx, `
				INSERT INTO `+table+` (username, password_hash)
				VALUES ($1, $2)
				ON CONFLICT (username) DO NOTHING
			`, username, hash)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			names = append(names, username)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Info().Msgf("%s seeded: %d/%d", table, end, count)
	}

	return names, nil
}

// seedAvailability opens a random subset of the next days for each caregiver.
func seedAvailability(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, caregivers []string, days int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	today := availability.Day(time.Now().UTC())
	var slots int
	for _, c := range caregivers {
		for d := 1; d <= days; d++ {
			if !gofakeit.Bool() {
				continue
			}
			_, err := tx.Exec(ctx, `
				INSERT INTO availabilities (time, username)
				VALUES ($1, $2)
				ON CONFLICT DO NOTHING
			`, today.AddDate(0, 0, d), c)
			if err != nil {
				return err
			}
			slots++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info().Int("slots", slots).Msg("availability seeded")
	return nil
}

func seedVaccines(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	vaccines := []string{"pfizer", "moderna", "janssen", "novavax", "astrazeneca"}

	for _, name := range vaccines {
		doses := gofakeit.Number(50, 500)
		_, err := pool.Exec(ctx, `
			INSERT INTO vaccines (name, doses)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE
			SET doses = vaccines.doses + EXCLUDED.doses
		`, name, doses)
		if err != nil {
			return err
		}
	}

	log.Info().Strs("vaccines", vaccines).Msg("vaccines seeded")
	return nil
}
