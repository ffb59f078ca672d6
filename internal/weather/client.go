package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kmorrow/bikeweather/internal/config"
	"github.com/kmorrow/bikeweather/pkg/models"
)

const defaultBaseURL = "https://archive-api.open-meteo.com/v1/archive"

const dateFormat = "2006-01-02"

// Client fetches daily weather summaries from the Open-Meteo archive API.
// Requests are retried with exponential backoff behind a circuit breaker so
// a dead endpoint fails fast instead of burning the full retry budget on
// every call.
type Client struct {
	baseURL        string
	client         *http.Client
	circuit        *gobreaker.CircuitBreaker
	maxRetries     int
	initialBackoff time.Duration
	log            *slog.Logger
}

// NewClient creates a weather client. baseURL overrides the Open-Meteo
// archive endpoint when non-empty (used by tests and the config override).
func NewClient(baseURL string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if log == nil {
		log = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openmeteo-archive",
		MaxRequests: 3,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		baseURL:        baseURL,
		client:         &http.Client{Timeout: 15 * time.Second},
		circuit:        cb,
		maxRetries:     3,
		initialBackoff: 500 * time.Millisecond,
		log:            log,
	}
}

var (
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
)

// FetchDaily retrieves daily weather for the station over the inclusive
// date range. The result has exactly one record per calendar day; days the
// API carries no values for are present with nil fields.
func (c *Client) FetchDaily(ctx context.Context, station config.StationConfig, start, end time.Time, timezone string) ([]models.DailyWeather, error) {
	values := url.Values{}
	values.Set("latitude", fmt.Sprintf("%.4f", station.Lat))
	values.Set("longitude", fmt.Sprintf("%.4f", station.Lon))
	values.Set("start_date", start.Format(dateFormat))
	values.Set("end_date", end.Format(dateFormat))
	values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,snowfall_sum")
	values.Set("timezone", timezone)

	endpoint := fmt.Sprintf("%s?%s", c.baseURL, values.Encode())

	payload, err := c.fetchWithRetry(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return materializeDays(payload, start, end)
}

// archiveResponse mirrors the Open-Meteo daily archive payload. Value
// arrays are parallel to Time and may contain nulls.
type archiveResponse struct {
	Daily struct {
		Time             []string   `json:"time"`
		Temperature2MMax []*float64 `json:"temperature_2m_max"`
		Temperature2MMin []*float64 `json:"temperature_2m_min"`
		PrecipitationSum []*float64 `json:"precipitation_sum"`
		SnowfallSum      []*float64 `json:"snowfall_sum"`
	} `json:"daily"`
}

func (c *Client) fetchWithRetry(ctx context.Context, endpoint string) (*archiveResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := c.initialBackoff * time.Duration(1<<(attempt-1))
			c.log.Debug("retrying weather fetch", "attempt", attempt, "delay", delay)
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}

		result, err := c.circuit.Execute(func() (interface{}, error) {
			return c.doFetch(ctx, endpoint)
		})
		if err == nil {
			return result.(*archiveResponse), nil
		}

		// An open circuit means the endpoint is known-dead; stop retrying.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("weather source circuit open: %w", err)
		}

		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) doFetch(ctx context.Context, endpoint string) (*archiveResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
	}

	var payload archiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &payload, nil
}

// materializeDays produces one record per calendar day of the range,
// filling from the response where present. Missing days stay in the output
// with nil fields so downstream joins keep date continuity.
func materializeDays(payload *archiveResponse, start, end time.Time) ([]models.DailyWeather, error) {
	byDate := make(map[string]models.DailyWeather, len(payload.Daily.Time))
	for i, ts := range payload.Daily.Time {
		if _, err := time.Parse(dateFormat, ts); err != nil {
			return nil, fmt.Errorf("parsing date %q in response: %w", ts, err)
		}
		var d models.DailyWeather
		if i < len(payload.Daily.Temperature2MMax) {
			d.MaxTempC = payload.Daily.Temperature2MMax[i]
		}
		if i < len(payload.Daily.Temperature2MMin) {
			d.MinTempC = payload.Daily.Temperature2MMin[i]
		}
		if i < len(payload.Daily.PrecipitationSum) {
			d.PrecipitationMM = payload.Daily.PrecipitationSum[i]
		}
		if i < len(payload.Daily.SnowfallSum) {
			d.SnowfallCM = payload.Daily.SnowfallSum[i]
		}
		byDate[ts] = d
	}

	var days []models.DailyWeather
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		d := byDate[day.Format(dateFormat)]
		d.Date = day
		days = append(days, d)
	}

	return days, nil
}
