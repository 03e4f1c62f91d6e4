// Command ingest bootstraps indexes, seeds sample companies and refreshes
// companies from SEC EDGAR by CIK.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	catalogapp "github.com/sngm3741/ethical-choice/api/internal/catalog/application"
	"github.com/sngm3741/ethical-choice/api/internal/config"
	"github.com/sngm3741/ethical-choice/api/internal/infrastructure/cache"
	mongostore "github.com/sngm3741/ethical-choice/api/internal/infrastructure/mongo"
	"github.com/sngm3741/ethical-choice/api/internal/infrastructure/secedgar"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
)

type ingestOptions struct {
	companyCount    int
	ciks            []string
	dropCollections bool
	randomSeed      int64
	timeout         time.Duration
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New(logging.DefaultConfig())
		bootLogger.Fatal().Err(err).Msg("load configuration")
	}
	logger := logging.New(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
		Service:   "ethical-choice-ingest",
	})

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	if err := run(ctx, *cfg, opts, logger); err != nil {
		logger.Error().Err(err).Msg("ingest failed")
		cancel()
		os.Exit(1)
	}
}

func parseFlags(args []string) (ingestOptions, error) {
	var (
		opts ingestOptions
		ciks string
	)
	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.IntVar(&opts.companyCount, "companies", 20, "number of sample companies to generate (0 skips seeding)")
	fs.StringVar(&ciks, "cik", "", "comma separated CIKs to refresh from SEC EDGAR")
	fs.BoolVar(&opts.dropCollections, "drop", false, "drop the company collection before seeding")
	fs.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "random seed for reproducible samples")
	fs.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "overall deadline")
	if err := fs.Parse(args); err != nil {
		return ingestOptions{}, err
	}

	if opts.companyCount < 0 {
		return ingestOptions{}, errors.New("companies must be zero or positive")
	}
	for _, cik := range strings.Split(ciks, ",") {
		if cik = strings.TrimSpace(cik); cik != "" {
			opts.ciks = append(opts.ciks, cik)
		}
	}
	return opts, nil
}

func run(ctx context.Context, cfg config.Config, opts ingestOptions, logger zerolog.Logger) error {
	client, err := mongostore.Connect(ctx, cfg.Mongo)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()
	db := client.Database(cfg.Mongo.Database)

	if opts.dropCollections {
		if err := db.Collection(cfg.Mongo.CompanyCollection).Drop(ctx); err != nil {
			return fmt.Errorf("drop %s: %w", cfg.Mongo.CompanyCollection, err)
		}
		logger.Info().Str("collection", cfg.Mongo.CompanyCollection).Msg("collection dropped")
	}
	if err := mongostore.EnsureIndexes(ctx, db, cfg.Mongo); err != nil {
		return err
	}

	companies := mongostore.NewCompanyRepository(db, cfg.Mongo.CompanyCollection)

	seeded := 0
	if opts.companyCount > 0 {
		rng := rand.New(rand.NewSource(opts.randomSeed))
		for _, c := range generateCompanies(rng, opts.companyCount, time.Now().UTC()) {
			if err := companies.Insert(ctx, &c); err != nil {
				if errors.Is(err, mongostore.ErrCompanyNameTaken) {
					logger.Debug().Str("name", c.Name).Msg("sample company exists, skipping")
					continue
				}
				return fmt.Errorf("insert company %q: %w", c.Name, err)
			}
			seeded++
		}
	}

	refreshed := 0
	if len(opts.ciks) > 0 {
		// Ingestion runs once, so an in-memory cache is enough.
		store, err := cache.Open("", logger)
		if err != nil {
			return err
		}
		defer store.Close()

		sec := secedgar.New(secedgar.Config{
			BaseURL:           cfg.SEC.BaseURL,
			UserAgent:         cfg.SEC.UserAgent,
			Timeout:           cfg.SEC.Timeout,
			RequestsPerSecond: cfg.SEC.RequestsPerSecond,
			BreakerFailures:   cfg.SEC.BreakerFailures,
			BreakerTimeout:    cfg.SEC.BreakerTimeout,
		}, nil, logger)
		users := mongostore.NewUserRepository(db, cfg.Mongo.UserCollection)
		catalog := catalogapp.NewService(companies, users, sec, store, cfg.Catalog.CacheTTL, logger)

		var failed []error
		for _, cik := range opts.ciks {
			result, err := catalog.Ingest(ctx, cik)
			if err != nil {
				logger.Warn().Err(err).Str("cik", cik).Msg("sec refresh failed")
				failed = append(failed, fmt.Errorf("cik %s: %w", cik, err))
				continue
			}
			refreshed++
			logger.Info().
				Str("cik", cik).
				Str("company_id", result.Company.ID).
				Str("name", result.Company.Name).
				Bool("created", result.Created).
				Int("filings", len(result.RecentFilings)).
				Msg("company refreshed from sec")
		}
		if len(failed) > 0 {
			logger.Info().Int("seeded", seeded).Int("refreshed", refreshed).Msg("ingest finished with errors")
			return errors.Join(failed...)
		}
	}

	logger.Info().
		Int("seeded", seeded).
		Int("refreshed", refreshed).
		Str("database", cfg.Mongo.Database).
		Msg("ingest complete")
	return nil
}
