package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listo-ph/listo/internal/auth"
	"github.com/listo-ph/listo/internal/distress"
	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/moderation"
	"github.com/listo-ph/listo/internal/monitoring"
	"github.com/listo-ph/listo/internal/store"
)

type testEnv struct {
	handler http.Handler
	store   store.Store
	admin   string
	user    string
	other   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "listo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	v := auth.NewVerifier("test-secret", "")
	issue := func(s auth.Session) string {
		tok, err := v.Issue(s, time.Hour)
		require.NoError(t, err)
		return tok
	}

	srv := New(Deps{
		Store:       st,
		Moderation:  moderation.New(st),
		Distress:    distress.New(st),
		Verifier:    v,
		Stats:       monitoring.NewCollector(st),
		CORSOrigins: []string{"*"},
	})
	return &testEnv{
		handler: srv.Handler(),
		store:   st,
		admin:   issue(auth.Session{UID: "admin-1", Capability: auth.Admin}),
		user:    issue(auth.Session{UID: "user-1", Name: "Ana", Capability: auth.User}),
		other:   issue(auth.Session{UID: "user-2", Capability: auth.User}),
	}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedCrimes(t *testing.T) {
	t.Helper()
	at := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 2, 0, 0, 0, time.UTC) }
	_, err := e.store.InsertIncidents(context.Background(), model.CollectionCrimes, []model.IncidentRecord{
		{ID: "c1", Category: model.CategoryTheft, OccurredAt: at(time.March, 5), Status: model.StatusValidated,
			Coordinate: model.Coordinate{Latitude: 14.68, Longitude: 121.09}, Location: "Holy Spirit"},
		{ID: "c2", Category: model.CategoryRape, OccurredAt: at(time.March, 5), Status: model.StatusValidated,
			Coordinate: model.Coordinate{Latitude: 14.67, Longitude: 121.08}, Location: "Matandang Balara"},
		{ID: "c3", Category: model.CategoryTheft, OccurredAt: at(time.April, 1), Status: model.StatusValidated,
			Coordinate: model.Coordinate{Latitude: 14.66, Longitude: 121.07}, Location: "Holy Spirit"},
	})
	require.NoError(t, err)
}

type listBody struct {
	Records []model.IncidentRecord `json:"records"`
	Page    model.PageState        `json:"page"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func ids(records []model.IncidentRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIncidents_ExactDateAndCategory(t *testing.T) {
	e := newTestEnv(t)
	e.seedCrimes(t)

	rec := e.do(t, http.MethodGet, "/incidents?date=2024-03-05&category=theft", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[listBody](t, rec)
	assert.Equal(t, []string{"c1"}, ids(body.Records))
	assert.Equal(t, 1, body.Page.TotalRecords)
}

func TestIncidents_MonthAndPaging(t *testing.T) {
	e := newTestEnv(t)
	e.seedCrimes(t)

	body := decode[listBody](t, e.do(t, http.MethodGet, "/incidents?month=2024-03", "", ""))
	assert.Equal(t, []string{"c1", "c2"}, ids(body.Records))

	body = decode[listBody](t, e.do(t, http.MethodGet, "/incidents?month=2024-03&page_size=1&page=2", "", ""))
	assert.Equal(t, []string{"c2"}, ids(body.Records))
	assert.Equal(t, 2, body.Page.TotalPages)

	rec := e.do(t, http.MethodGet, "/incidents?month=2024-03&page_size=1&page=3", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[listBody](t, rec)
	assert.Empty(t, body.Records)
	assert.Equal(t, 2, body.Page.TotalRecords)

	rec = e.do(t, http.MethodGet, "/incidents?month=2024-03&page_size=2&page=9223372036854775807", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[listBody](t, rec).Records)
}

func TestIncidents_BadParams(t *testing.T) {
	e := newTestEnv(t)
	for _, q := range []string{"date=2024-13-01", "month=march", "from=2024-03-01", "status=lost", "page=0", "page_size=x"} {
		rec := e.do(t, http.MethodGet, "/incidents?"+q, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestIncidents_CollectionAccess(t *testing.T) {
	e := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/incidents?collection=reports", "", "").Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/incidents?collection=reports", e.user, "").Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/incidents?collection=archives", e.admin, "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/incidents?collection=users", e.admin, "").Code)
}

func TestInvalidToken(t *testing.T) {
	e := newTestEnv(t)
	rec := e.do(t, http.MethodGet, "/incidents", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMonths(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodGet, "/months?month=2024-12&step=next", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-01", decode[map[string]any](t, rec)["month"])

	rec = e.do(t, http.MethodGet, "/months?month=2024-01&step=prev", "", "")
	assert.Equal(t, "2023-12", decode[map[string]any](t, rec)["month"])

	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/months?month=9999-12&step=next", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/months?month=2024-01&step=sideways", "", "").Code)
}

func TestMapLayers(t *testing.T) {
	e := newTestEnv(t)
	e.seedCrimes(t)

	rec := e.do(t, http.MethodGet, "/map/markers?category=theft", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	fc := decode[struct {
		Features []map[string]any `json:"features"`
	}](t, rec)
	assert.Len(t, fc.Features, 2)

	rec = e.do(t, http.MethodGet, "/map/heatmap?month=2024-03", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/map/heatmap?cell=-1", "", "").Code)
}

func TestExport(t *testing.T) {
	e := newTestEnv(t)
	e.seedCrimes(t)

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/export", "", "").Code)

	rec := e.do(t, http.MethodGet, "/export?format=csv&month=2024-03", e.admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "FilteredReports.csv")
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "S. No.,Category,Date,Coordinates,Location,Description", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,Theft,2024-03-05,"))

	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/export?month=2023-01", e.admin, "").Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodGet, "/export?format=doc", e.admin, "").Code)
}

func TestReportLifecycle(t *testing.T) {
	e := newTestEnv(t)
	draft := `{"category":"Theft","location":"Holy Spirit","coordinate":{"latitude":14.68,"longitude":121.09},"occurred_at":"2024-03-05T02:00:00Z"}`

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodPost, "/reports", "", draft).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/reports", e.user, "{").Code)

	rec := e.do(t, http.MethodPost, "/reports", e.user, draft)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.IncidentRecord](t, rec)
	assert.Equal(t, model.CategoryTheft, created.Category)
	assert.Equal(t, model.StatusPending, created.Status)

	own := decode[listBody](t, e.do(t, http.MethodGet, "/reports", e.user, ""))
	assert.Equal(t, []string{created.ID}, ids(own.Records))
	assert.Empty(t, decode[listBody](t, e.do(t, http.MethodGet, "/reports", e.other, "")).Records)

	assert.Equal(t, http.StatusForbidden,
		e.do(t, http.MethodPut, "/reports/"+created.ID, e.other, draft).Code)
	assert.Equal(t, http.StatusForbidden,
		e.do(t, http.MethodPost, "/reports/"+created.ID+"/validate", e.user, "").Code)

	pending := decode[listBody](t, e.do(t, http.MethodGet, "/reports", e.admin, ""))
	assert.Equal(t, []string{created.ID}, ids(pending.Records))

	rec = e.do(t, http.MethodPost, "/reports/"+created.ID+"/validate", e.admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	crimes := decode[listBody](t, e.do(t, http.MethodGet, "/incidents?date=2024-03-05", "", ""))
	assert.Equal(t, []string{created.ID}, ids(crimes.Records))
	assert.Equal(t, model.StatusValidated, crimes.Records[0].Status)

	assert.Equal(t, http.StatusConflict,
		e.do(t, http.MethodPost, "/reports/"+created.ID+"/archive", e.admin, "").Code)
	assert.Equal(t, http.StatusConflict,
		e.do(t, http.MethodDelete, "/reports/"+created.ID, e.user, "").Code)
	assert.Equal(t, http.StatusNotFound,
		e.do(t, http.MethodPost, "/reports/missing/validate", e.admin, "").Code)
}

func TestUserEditAndDelete(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(t, http.MethodPost, "/reports", e.user, `{"category":"arson"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[model.IncidentRecord](t, rec).ID

	rec = e.do(t, http.MethodPut, "/reports/"+id, e.user, `{"category":"Fire","location":"Batasan Rd"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	edited := decode[model.IncidentRecord](t, rec)
	assert.Equal(t, model.CategoryFire, edited.Category)
	assert.Equal(t, "Batasan Rd", edited.Location)

	assert.Equal(t, http.StatusNoContent, e.do(t, http.MethodDelete, "/reports/"+id, e.user, "").Code)
	assert.Empty(t, decode[listBody](t, e.do(t, http.MethodGet, "/reports", e.user, "")).Records)
}

func TestRecordAndCleanup(t *testing.T) {
	e := newTestEnv(t)

	in := `{"category":"robbery","location":"Holy Spirit","coordinate":{"latitude":14.68,"longitude":121.09}}`
	out := `{"category":"robbery","location":"Makati","coordinate":{"latitude":14.55,"longitude":121.02}}`
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodPost, "/crimes", e.user, in).Code)
	assert.Equal(t, http.StatusCreated, e.do(t, http.MethodPost, "/crimes", e.admin, in).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/crimes", e.admin, out).Code)
	assert.Equal(t, http.StatusBadRequest, e.do(t, http.MethodPost, "/crimes", e.admin, `{"category":"xyz"}`).Code)

	_, err := e.store.InsertIncident(context.Background(), model.CollectionCrimes,
		model.IncidentRecord{Category: model.CategoryUnknown, Status: model.StatusValidated})
	require.NoError(t, err)

	rec := e.do(t, http.MethodPost, "/cleanup", e.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())
}

func TestDistress(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	for _, b := range []string{"HS", "MB", "HS"} {
		_, err := e.store.InsertDistress(ctx, model.DistressRecord{Barangay: b, AdditionalInfo: "help"})
		require.NoError(t, err)
	}

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/distress", e.user, "").Code)

	rec := e.do(t, http.MethodGet, "/distress?barangay=HS&page_size=1", e.admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[struct {
		Records []model.DistressRecord `json:"records"`
		Page    model.PageState        `json:"page"`
	}](t, rec)
	require.Len(t, body.Records, 1)
	assert.Equal(t, distress.UnknownAddress, body.Records[0].Address)
	assert.Equal(t, 2, body.Page.TotalPages)

	rec = e.do(t, http.MethodPost, "/distress/"+body.Records[0].ID+"/acknowledge", e.admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodPost, "/distress/nope/acknowledge", e.admin, "").Code)
}

func TestStats(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	_, err := e.store.InsertDistress(ctx, model.DistressRecord{Barangay: "HS"})
	require.NoError(t, err)
	_, err = e.store.InsertIncident(ctx, model.CollectionReports,
		model.IncidentRecord{Category: model.CategoryTheft, Status: model.StatusPending})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/stats", "", "").Code)
	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/stats", e.user, "").Code)

	rec := e.do(t, http.MethodGet, "/stats", e.admin, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decode[monitoring.MetricsSnapshot](t, rec)
	assert.Equal(t, 1, snap.PendingReports)
	assert.Equal(t, 1, snap.DistressUnacknowledged)
	assert.Equal(t, 24, snap.LookbackHours)
}
