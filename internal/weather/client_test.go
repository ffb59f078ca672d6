package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmorrow/bikeweather/internal/config"
)

var testStation = config.StationConfig{Name: "NYC Central Park", Lat: 40.78, Lon: -73.97}

const archivePayload = `{
	"daily": {
		"time": ["2022-06-01", "2022-06-03"],
		"temperature_2m_max": [27.5, null],
		"temperature_2m_min": [18.1, 17.0],
		"precipitation_sum": [0.0, 2.3],
		"snowfall_sum": [null, null]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(server.URL, nil)
	c.initialBackoff = time.Millisecond // keep retry tests fast
	return c
}

func TestFetchDailyMaterializesEveryDay(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2022-06-01", r.URL.Query().Get("start_date"))
		assert.Equal(t, "2022-06-03", r.URL.Query().Get("end_date"))
		assert.Equal(t, "America/New_York", r.URL.Query().Get("timezone"))
		w.Write([]byte(archivePayload))
	})

	start := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 6, 3, 0, 0, 0, 0, time.UTC)

	days, err := client.FetchDaily(context.Background(), testStation, start, end, "America/New_York")
	require.NoError(t, err)
	require.Len(t, days, 3, "every calendar day of the range must be present")

	require.NotNil(t, days[0].MaxTempC)
	assert.InDelta(t, 27.5, *days[0].MaxTempC, 1e-9)
	assert.Nil(t, days[0].SnowfallCM)

	// 2022-06-02 is absent from the response: present with nil fields
	assert.Equal(t, "2022-06-02", days[1].Date.Format("2006-01-02"))
	assert.False(t, days[1].HasObservations())

	// Null in a value array stays nil
	assert.Nil(t, days[2].MaxTempC)
	require.NotNil(t, days[2].MinTempC)
	assert.InDelta(t, 17.0, *days[2].MinTempC, 1e-9)
}

func TestFetchDailyRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(archivePayload))
	})

	start := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2022, 6, 3, 0, 0, 0, 0, time.UTC)

	days, err := client.FetchDaily(context.Background(), testStation, start, end, "UTC")
	require.NoError(t, err)
	assert.Len(t, days, 3)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchDailyExhaustsRetries(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	start := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := client.FetchDaily(context.Background(), testStation, start, start, "UTC")
	require.Error(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls), "initial attempt plus 3 retries")
}

func TestFetchDailyContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client.initialBackoff = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err := client.FetchDaily(ctx, testStation, start, start, "UTC")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
