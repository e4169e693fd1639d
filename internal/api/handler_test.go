package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/UnknownOlympus/helios/internal/api"
	"github.com/UnknownOlympus/helios/internal/metrics"
	"github.com/UnknownOlympus/helios/internal/models"
	"github.com/UnknownOlympus/helios/internal/score"
	"github.com/UnknownOlympus/helios/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var queenStreet = models.AddressFragments{
	Country:      "Canada",
	City:         "Toronto",
	StreetName:   "Queen St",
	StreetNumber: "100",
	PostalCode:   "M5H 2N2",
}

type stubProvider struct{}

func (stubProvider) Name() string { return "stub" }

func (stubProvider) Geocode(context.Context, string) (*models.Coordinates, error) {
	return &models.Coordinates{Latitude: 43.6505, Longitude: -79.3790}, nil
}

// stubFetcher returns err when set, otherwise a fixed result.
type stubFetcher struct {
	validator *score.Validator
	err       error
}

func (f stubFetcher) Validate(fragments models.AddressFragments) error {
	return f.validator.Validate(fragments)
}

func (f stubFetcher) Fetch(context.Context, models.AddressFragments) (*models.ScoreResult, error) {
	if f.err != nil {
		return nil, f.err
	}

	return &models.ScoreResult{
		LightScore:  72,
		Coordinates: &models.Coordinates{Latitude: 43.6505, Longitude: -79.3790},
	}, nil
}

func newTestServer(t *testing.T, fetchErr error) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	store := session.NewStore(ctx, slog.Default(), stubProvider{},
		stubFetcher{validator: score.NewValidator(false), err: fetchErr},
		metrics.NewMetrics(prometheus.NewRegistry()),
		session.Options{QuietPeriod: 10 * time.Millisecond, TTL: time.Hour})

	done := make(chan struct{})
	go func() {
		store.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return api.NewRouter(store, []string{"https://helios.example"}, slog.Default())
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()

	rec := do(t, router, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp api.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.ID)
	require.NoError(t, err)

	return resp.ID
}

func TestCreateSession_DefaultState(t *testing.T) {
	router := newTestServer(t, nil)

	rec := do(t, router, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp api.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.DefaultZoom, resp.Map.Zoom)
	assert.InDelta(t, models.DefaultLatitude, resp.Map.Center.Latitude, 1e-9)
	assert.Nil(t, resp.Map.Marker)
	assert.Equal(t, "idle", resp.Map.State)
	assert.False(t, resp.Score.Loading)
	assert.Nil(t, resp.Score.Result)
}

func TestUpdateAddress_RecentersMap(t *testing.T) {
	router := newTestServer(t, nil)
	id := createSession(t, router)

	rec := do(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/address", queenStreet)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp api.MapResponse
	require.Eventually(t, func() bool {
		rec := do(t, router, http.MethodGet, "/api/v1/sessions/"+id+"/map", nil)
		if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &resp) != nil {
			return false
		}
		return resp.Zoom == 16 && resp.Marker != nil
	}, time.Second, 5*time.Millisecond)

	assert.InDelta(t, 43.6505, resp.Center.Latitude, 1e-9)
	assert.Contains(t, resp.StaticMapURL, "markers=43.650500%2C-79.379000")

	rec = do(t, router, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sess api.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, queenStreet, sess.Address)
}

func TestUpdateAddress_BadBody(t *testing.T) {
	router := newTestServer(t, nil)
	id := createSession(t, router)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/sessions/"+id+"/address", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmit(t *testing.T) {
	testCases := []struct {
		name       string
		address    *models.AddressFragments
		fetchErr   error
		wantStatus int
		wantError  string
	}{
		{
			name:       "success",
			address:    &queenStreet,
			wantStatus: http.StatusOK,
		},
		{
			name:       "incomplete address",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid address",
			address:    &queenStreet,
			fetchErr:   &score.Error{Kind: score.KindInvalidAddress, Message: score.MsgInvalidAddress, Detail: "bad"},
			wantStatus: http.StatusUnprocessableEntity,
			wantError:  score.MsgInvalidAddress,
		},
		{
			name:       "not found",
			address:    &queenStreet,
			fetchErr:   &score.Error{Kind: score.KindNotFound, Message: score.MsgNotFound},
			wantStatus: http.StatusNotFound,
			wantError:  score.MsgNotFound,
		},
		{
			name:       "backend down",
			address:    &queenStreet,
			fetchErr:   &score.Error{Kind: score.KindTransport, Message: score.MsgFailed},
			wantStatus: http.StatusBadGateway,
			wantError:  score.MsgFailed,
		},
		{
			name:       "superseded",
			address:    &queenStreet,
			fetchErr:   score.ErrSuperseded,
			wantStatus: http.StatusConflict,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestServer(t, tc.fetchErr)
			id := createSession(t, router)

			if tc.address != nil {
				rec := do(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/address", tc.address)
				require.Equal(t, http.StatusAccepted, rec.Code)
			}

			rec := do(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/score", nil)
			require.Equal(t, tc.wantStatus, rec.Code)

			if tc.wantStatus == http.StatusOK {
				var resp api.ScoreResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.InDelta(t, 72, resp.LightScore, 0)
				assert.Equal(t, "Good Light", resp.Label)
				assert.InDelta(t, 72, resp.Progress, 0)
				require.NotNil(t, resp.Coordinates)
				return
			}

			var resp api.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, resp.Error)
			}
		})
	}
}

func TestSubmit_ValidationListsFields(t *testing.T) {
	router := newTestServer(t, nil)
	id := createSession(t, router)

	partial := models.AddressFragments{Country: "Canada", City: "Toronto"}
	require.Equal(t, http.StatusAccepted, do(t, router, http.MethodPut, "/api/v1/sessions/"+id+"/address", partial).Code)

	rec := do(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/score", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error   string              `json:"error"`
		Details map[string][]string `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.ElementsMatch(t, []string{"postal_code", "street_name", "street_number"}, resp.Details["fields"])

	rec = do(t, router, http.MethodGet, "/api/v1/sessions/"+id, nil)
	var sess api.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, resp.Error, sess.Score.Error)
}

func TestUnknownSession(t *testing.T) {
	router := newTestServer(t, nil)

	rec := do(t, router, http.MethodGet, "/api/v1/sessions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodDelete, "/api/v1/sessions/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteSession(t *testing.T) {
	router := newTestServer(t, nil)
	id := createSession(t, router)

	rec := do(t, router, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	router := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://helios.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://helios.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
