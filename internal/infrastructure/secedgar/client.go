// Package secedgar fetches company submissions from the SEC EDGAR API.
package secedgar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/sngm3741/ethical-choice/api/internal/apperr"
	"github.com/sngm3741/ethical-choice/api/internal/catalog/domain"
	"github.com/sngm3741/ethical-choice/api/internal/logging"
	"github.com/sngm3741/ethical-choice/api/internal/metrics"
)

const breakerName = "sec-edgar"

// maxRecentFilings bounds how many filings are carried into the domain.
const maxRecentFilings = 10

// Config configures Client.
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
}

// Client is safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[domain.Submission]
	logger     zerolog.Logger
}

// New builds a client. A nil httpClient gets one with cfg.Timeout.
func New(cfg Config, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger = logger.With().Str("component", "secedgar").Logger()

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	metrics.SECBreakerState.Set(0)
	breaker := gobreaker.NewCircuitBreaker[domain.Submission](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// A missing CIK is the caller's problem, not an outage.
			return err == nil || apperr.IsNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.SECBreakerState.Set(float64(to))
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		breaker:    breaker,
		logger:     logger,
	}
}

// FetchSubmission downloads CIK{cik}.json and maps it to a domain.Submission.
func (c *Client) FetchSubmission(ctx context.Context, cik string) (domain.Submission, error) {
	padded, err := domain.NormalizeCIK(cik)
	if err != nil {
		return domain.Submission{}, err
	}

	sub, err := c.breaker.Execute(func() (domain.Submission, error) {
		return c.fetch(ctx, padded)
	})
	switch {
	case err == nil:
		metrics.SECRequests.WithLabelValues("success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.SECRequests.WithLabelValues("rejected").Inc()
		return domain.Submission{}, fmt.Errorf("sec edgar unavailable: %w", err)
	case apperr.IsNotFound(err):
		metrics.SECRequests.WithLabelValues("not_found").Inc()
	default:
		metrics.SECRequests.WithLabelValues("failure").Inc()
	}
	return sub, err
}

func (c *Client) fetch(ctx context.Context, cik string) (domain.Submission, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Submission{}, fmt.Errorf("rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s/CIK%s.json", c.baseURL, cik)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Submission{}, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	logging.Ctx(ctx, c.logger).Debug().
		Str("cik", cik).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("edgar submissions fetched")

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.Submission{}, apperr.NotFound(fmt.Sprintf("No SEC submissions for CIK %s", cik))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.Submission{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload submissionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.Submission{}, fmt.Errorf("decode submissions: %w", err)
	}
	return payload.toDomain(cik), nil
}

type submissionsResponse struct {
	CIK            string   `json:"cik"`
	Name           string   `json:"name"`
	Tickers        []string `json:"tickers"`
	SIC            string   `json:"sic"`
	SICDescription string   `json:"sicDescription"`
	Website        string   `json:"website"`
	Description    string   `json:"description"`
	Filings        struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

func (r submissionsResponse) toDomain(cik string) domain.Submission {
	recent := r.Filings.Recent
	n := len(recent.AccessionNumber)
	if n > maxRecentFilings {
		n = maxRecentFilings
	}
	filings := make([]domain.Filing, 0, n)
	for i := 0; i < n; i++ {
		filings = append(filings, domain.Filing{
			AccessionNumber: recent.AccessionNumber[i],
			Form:            at(recent.Form, i),
			FilingDate:      at(recent.FilingDate, i),
			PrimaryDocument: at(recent.PrimaryDocument, i),
		})
	}
	return domain.Submission{
		CIK:           cik,
		Name:          r.Name,
		Tickers:       append([]string{}, r.Tickers...),
		SICCode:       r.SIC,
		SICDesc:       r.SICDescription,
		Website:       r.Website,
		Description:   r.Description,
		RecentFilings: filings,
	}
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
