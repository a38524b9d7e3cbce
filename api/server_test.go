package api

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medinsight/app"
	"medinsight/domain/core"
	"medinsight/domain/insight"
	"medinsight/domain/medication"
	"medinsight/domain/stats"
	"medinsight/internal/config"
	"medinsight/internal/testkit"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return NewServer(app.NewInsightService(config.DefaultProfile(), nil), nil).Router()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// sampleMedication has parameters chosen so a 140 mg dose at 70 kg peaks
// at exactly 50 ng/mL: 140*1000*0.5 / (20*70).
func sampleMedication() medication.Medication {
	return medication.Medication{
		ID:                    "med-a",
		Name:                  "Alpha",
		HalfLifeHours:         24,
		VolumeOfDistributionL: 20,
		Bioavailability:       0.5,
		AbsorptionRatePerHour: 1.2,
	}
}

func ptr(v float64) *float64 { return &v }

func TestHealthEndpoint(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodGet, "/healthz", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRequestIDPropagation(t *testing.T) {
	var seen string
	h := requestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	// A client-supplied id survives the hop
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", seen)
	assert.Equal(t, "upstream-id", rec.Header().Get("X-Request-ID"))

	// Without one, the middleware mints an id and echoes it back
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodGet, "/metrics", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "medinsight_report_seconds")
}

func TestGenerateReportEndpoint(t *testing.T) {
	kit := testkit.NewTestKit()
	h := kit.History()
	cfg := kit.Config()

	rec := doJSON(t, newTestServer(t), http.MethodPost, "/v1/reports", app.ReportRequest{
		Medications: h.Medications,
		Doses:       h.Doses,
		MoodEntries: h.MoodEntries,
		WindowDays:  cfg.Days,
		Now:         core.NewTimestamp(cfg.Start.AddDate(0, 0, cfg.Days)),
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report insight.Report
	decodeBody(t, rec, &report)
	assert.NotEmpty(t, report.ID)
	assert.NotEmpty(t, report.Insights)
	assert.True(t, report.DataQuality.Sufficient)
	assert.Equal(t, 2, report.DataQuality.MedicationsAnalyzed)
}

// Sparse history is a well-formed report describing its own insufficiency,
// not an HTTP error.
func TestGenerateReportEndpointSparseHistory(t *testing.T) {
	rec := doJSON(t, newTestServer(t), http.MethodPost, "/v1/reports", app.ReportRequest{
		WindowDays: 30,
		Now:        core.NewTimestamp(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report insight.Report
	decodeBody(t, rec, &report)
	assert.Empty(t, report.Insights)
	assert.False(t, report.DataQuality.Sufficient)
}

func TestGenerateReportEndpointMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	newTestServer(t).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeBody(t, rec, &envelope)
	assert.Equal(t, "INVALID_INPUT", envelope.Error.Code)
	assert.Contains(t, envelope.Error.Message, "malformed request body")
}

func TestConcentrationSeriesEndpoint(t *testing.T) {
	doseAt := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	req := concentrationSeriesRequest{
		Medication: sampleMedication(),
		Doses: []medication.Dose{
			{MedicationID: "med-a", Timestamp: core.NewTimestamp(doseAt), AmountMg: 140},
		},
		Timestamps: []core.Timestamp{
			core.NewTimestamp(doseAt.Add(-time.Hour)),
			core.NewTimestamp(doseAt),
			core.NewTimestamp(doseAt.Add(24 * time.Hour)),
			core.NewTimestamp(doseAt.Add(48 * time.Hour)),
		},
		BodyWeightKg: 70,
	}

	rec := doJSON(t, newTestServer(t), http.MethodPost, "/v1/concentration/series", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp concentrationSeriesResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Samples, 4)
	require.NotNil(t, resp.Samples[0])
	assert.InDelta(t, 0, *resp.Samples[0], 1e-9, "before the first dose")
	assert.InDelta(t, 50, *resp.Samples[1], 1e-9, "peak at the dose instant")
	assert.InDelta(t, 25, *resp.Samples[2], 1e-9, "one half-life later")
	assert.InDelta(t, 12.5, *resp.Samples[3], 1e-9, "two half-lives later")
}

// A lone trend sample has too few neighbors to average, which the wire
// format reports as null.
func TestConcentrationSeriesEndpointTrendNull(t *testing.T) {
	doseAt := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	req := concentrationSeriesRequest{
		Medication: sampleMedication(),
		Doses: []medication.Dose{
			{MedicationID: "med-a", Timestamp: core.NewTimestamp(doseAt), AmountMg: 140},
		},
		Timestamps: []core.Timestamp{core.NewTimestamp(doseAt.Add(time.Hour))},
		Mode:       "trend",
	}

	rec := doJSON(t, newTestServer(t), http.MethodPost, "/v1/concentration/series", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp concentrationSeriesResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Samples, 1)
	assert.Nil(t, resp.Samples[0])
}

func TestConcentrationSeriesEndpointUnknownMode(t *testing.T) {
	req := concentrationSeriesRequest{Medication: sampleMedication(), Mode: "cubic"}

	rec := doJSON(t, newTestServer(t), http.MethodPost, "/v1/concentration/series", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown sampling mode")
}

func TestConcentrationProfileEndpoint(t *testing.T) {
	doseAt := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	req := concentrationProfileRequest{
		Medication: sampleMedication(),
		Doses: []medication.Dose{
			{MedicationID: "med-a", Timestamp: core.NewTimestamp(doseAt), AmountMg: 140},
		},
		From:         core.NewTimestamp(doseAt.Add(-24 * time.Hour)),
		To:           core.NewTimestamp(doseAt.Add(48 * time.Hour)),
		BodyWeightKg: 70,
	}

	rec := doJSON(t, newTestServer(t), http.MethodPost, "/v1/concentration/profile", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Valid     bool    `json:"valid"`
		DoseCount int     `json:"doseCount"`
		Cmax      float64 `json:"cmax"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Valid)
	assert.Equal(t, 1, resp.DoseCount)
	assert.InDelta(t, 50, resp.Cmax, 1e-9)
}

func TestConcentrationProfileEndpointBadWindow(t *testing.T) {
	at := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	req := concentrationProfileRequest{
		Medication: sampleMedication(),
		From:       core.NewTimestamp(at),
		To:         core.NewTimestamp(at.Add(-time.Hour)),
	}

	rec := doJSON(t, newTestServer(t), http.MethodPost, "/v1/concentration/profile", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "from before to")
}

// Null cells mark missing observations and drop out pairwise, so a perfect
// line with one hole still correlates at r=1 over the surviving pairs.
func TestCorrelateEndpoint(t *testing.T) {
	req := correlateRequest{
		X: []*float64{ptr(1), ptr(2), nil, ptr(4), ptr(5), ptr(6), ptr(7), ptr(8)},
		Y: []*float64{ptr(2), ptr(4), ptr(6), ptr(8), ptr(10), ptr(12), ptr(14), ptr(16)},
	}

	rec := doJSON(t, newTestServer(t), http.MethodPost, "/v1/stats/correlate", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result stats.CorrelationResult
	decodeBody(t, rec, &result)
	assert.InDelta(t, 1.0, result.R, 1e-9)
	assert.InDelta(t, 0.0, result.P, 1e-9)
	assert.Equal(t, 7, result.N)
	assert.Equal(t, stats.SignificanceHigh, result.Significance)
}

func TestCorrelateEndpointUnknownMethod(t *testing.T) {
	req := correlateRequest{Method: "kendall"}

	rec := doJSON(t, newTestServer(t), http.MethodPost, "/v1/stats/correlate", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown correlation method")
}

func TestCrossCorrelateEndpoint(t *testing.T) {
	base := []float64{5, 1, 4, 2, 8, 3, 9, 2, 7, 1, 6, 4, 8, 2, 9, 5, 3, 7, 1, 8}
	delayed := make([]float64, len(base))
	delayed[0], delayed[1] = 2, 6
	for i := 2; i < len(base); i++ {
		delayed[i] = base[i-2]
	}

	req := crossCorrelateRequest{
		A:      nullableSamples(base),
		B:      nullableSamples(delayed),
		MaxLag: 3,
	}

	rec := doJSON(t, newTestServer(t), http.MethodPost, "/v1/stats/cross-correlate", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp crossCorrelateResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Points, 7)

	var best stats.CrossCorrelationPoint
	for _, p := range resp.Points {
		if math.Abs(p.R) > math.Abs(best.R) {
			best = p
		}
	}
	assert.Equal(t, 2, best.Lag.Hours(), "the echo sits two steps after the source")
	assert.InDelta(t, 1.0, best.R, 1e-9)
	assert.True(t, best.MeetsMinPairs)
}

func TestCrossCorrelateEndpointNegativeMaxLag(t *testing.T) {
	req := crossCorrelateRequest{MaxLag: -1}

	rec := doJSON(t, newTestServer(t), http.MethodPost, "/v1/stats/cross-correlate", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "maxLag")
}
