package moderation

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listo-ph/listo/internal/auth"
	"github.com/listo-ph/listo/internal/model"
	"github.com/listo-ph/listo/internal/normalize"
	"github.com/listo-ph/listo/internal/store"
)

var (
	userA = auth.Session{UID: "user-a", Name: "Ana", Phone: "+639170000001", Capability: auth.User}
	userB = auth.Session{UID: "user-b", Capability: auth.User}
	admin = auth.Session{UID: "admin-1", Capability: auth.Admin}

	fixedNow = time.Date(2024, time.May, 4, 9, 30, 0, 0, time.UTC)
	inArea   = model.Coordinate{Latitude: 14.68, Longitude: 121.09}
)

type fakeGeocoder struct {
	pt  *model.Coordinate
	err error
}

func (f fakeGeocoder) Geocode(context.Context, string) (*model.Coordinate, error) { return f.pt, f.err }
func (f fakeGeocoder) Reverse(context.Context, float64, float64) (string, error)  { return "", nil }

type fakeCaller struct {
	mu    sync.Mutex
	calls []map[string]string
	err   error
}

func (f *fakeCaller) Call(_ context.Context, name string, payload, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name != PenalizeFunction {
		return eris.Errorf("unexpected function %s", name)
	}
	f.calls = append(f.calls, payload.(map[string]string))
	return f.err
}

func newTestService(t *testing.T, opts ...Option) (*Service, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "listo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	base := []Option{WithClock(func() time.Time { return fixedNow })}
	return New(st, append(base, opts...)...), st
}

func get(t *testing.T, st store.Store, collection, id string) model.IncidentRecord {
	t.Helper()
	raw, err := st.GetIncident(context.Background(), collection, id)
	require.NoError(t, err)
	rec, _ := normalize.FromRaw(raw)
	return rec
}

func TestSubmit_Defaults(t *testing.T) {
	svc, st := newTestService(t)
	rec, err := svc.Submit(context.Background(), userB, Draft{Category: " Theft "})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)

	got := get(t, st, model.CollectionReports, rec.ID)
	assert.Equal(t, model.CategoryTheft, got.Category)
	assert.Equal(t, DefaultLocation, got.Location)
	assert.Equal(t, DefaultAdditionalInfo, got.AdditionalInfo)
	assert.Equal(t, DefaultReporterName, got.ReporterName)
	assert.Equal(t, DefaultReporterPhone, got.ReporterPhone)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, "user-b", got.OwnerID)
	assert.True(t, got.OccurredAt.Equal(fixedNow))
	assert.True(t, got.ReportedAt.Equal(fixedNow))
}

func TestSubmit_UnknownCategoryKept(t *testing.T) {
	svc, st := newTestService(t)
	rec, err := svc.Submit(context.Background(), userA, Draft{Category: "loitering", Location: "Batasan"})
	require.NoError(t, err)
	got := get(t, st, model.CollectionReports, rec.ID)
	assert.Equal(t, model.CategoryUnknown, got.Category)
	assert.Equal(t, "Ana", got.ReporterName)
}

func TestRoleGating(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Submit(ctx, auth.GuestSession, Draft{Category: "theft"})
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)

	_, err = svc.Submit(ctx, admin, Draft{Category: "theft"})
	assert.ErrorIs(t, err, auth.ErrForbidden, "admin does not submit through the user path")

	rec, err := svc.Submit(ctx, userA, Draft{Category: "theft"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Validate(ctx, userA, rec.ID, nil), auth.ErrForbidden)
	assert.ErrorIs(t, svc.Archive(ctx, userA, rec.ID, nil), auth.ErrForbidden)
	_, err = svc.Edit(ctx, admin, rec.ID, Draft{Category: "arson"})
	assert.ErrorIs(t, err, auth.ErrForbidden)
	_, err = svc.Cleanup(ctx, userA)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestEditAndDelete_OwnPendingOnly(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Submit(ctx, userA, Draft{Category: "theft", Location: "Holy Spirit"})
	require.NoError(t, err)

	_, err = svc.Edit(ctx, userB, rec.ID, Draft{Category: "arson"})
	assert.ErrorIs(t, err, auth.ErrForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, userB, rec.ID), auth.ErrForbidden)

	edited, err := svc.Edit(ctx, userA, rec.ID, Draft{Category: "robbery", Location: "Matandang Balara", Coordinate: inArea})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryRobbery, edited.Category)
	got := get(t, st, model.CollectionReports, rec.ID)
	assert.Equal(t, "Matandang Balara", got.Location)
	assert.Equal(t, inArea, got.Coordinate)
	assert.Equal(t, "user-a", got.OwnerID)

	require.NoError(t, svc.Validate(ctx, admin, rec.ID, nil))
	_, err = svc.Edit(ctx, userA, rec.ID, Draft{Category: "theft"})
	assert.ErrorIs(t, err, ErrNotPending)
	assert.ErrorIs(t, svc.Delete(ctx, userA, rec.ID), ErrNotPending)

	other, err := svc.Submit(ctx, userA, Draft{Category: "theft"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, userA, other.ID))
	_, err = st.GetIncident(ctx, model.CollectionReports, other.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestValidateAndArchive(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	a, err := svc.Submit(ctx, userA, Draft{Category: "theft", Coordinate: inArea})
	require.NoError(t, err)
	b, err := svc.Submit(ctx, userA, Draft{Category: "assault"})
	require.NoError(t, err)

	require.NoError(t, svc.Validate(ctx, admin, a.ID, &Draft{Category: "robbery", Location: "Commonwealth", Coordinate: inArea}))
	require.NoError(t, svc.Archive(ctx, admin, b.ID, nil))

	assert.Equal(t, model.StatusValidated, get(t, st, model.CollectionReports, a.ID).Status)
	crime := get(t, st, model.CollectionCrimes, a.ID)
	assert.Equal(t, model.StatusValidated, crime.Status)
	assert.Equal(t, model.CategoryRobbery, crime.Category)
	assert.Equal(t, "Commonwealth", crime.Location)

	assert.Equal(t, model.StatusArchived, get(t, st, model.CollectionReports, b.ID).Status)
	assert.Equal(t, model.StatusArchived, get(t, st, model.CollectionArchives, b.ID).Status)

	assert.ErrorIs(t, svc.Validate(ctx, admin, b.ID, nil), ErrNotPending)
	assert.ErrorIs(t, svc.Archive(ctx, admin, a.ID, nil), ErrNotPending)
	assert.ErrorIs(t, svc.Validate(ctx, admin, "missing", nil), store.ErrNotFound)
}

func TestReports_Scopes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a1, err := svc.Submit(ctx, userA, Draft{Category: "theft"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, userA, Draft{Category: "arson"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, userB, Draft{Category: "fire"})
	require.NoError(t, err)
	require.NoError(t, svc.Validate(ctx, admin, a1.ID, nil))

	mine, err := svc.Reports(ctx, userA)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, r := range mine {
		assert.Equal(t, "user-a", r.OwnerID)
	}

	queue, err := svc.Reports(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, queue, 2)
	for _, r := range queue {
		assert.Equal(t, model.StatusPending, r.Status)
	}

	_, err = svc.Reports(ctx, auth.GuestSession)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
}

func TestRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("coordinate given", func(t *testing.T) {
		svc, st := newTestService(t)
		rec, err := svc.Record(ctx, admin, Draft{Category: "Homicide", Location: "Holy Spirit", Coordinate: inArea})
		require.NoError(t, err)
		got := get(t, st, model.CollectionCrimes, rec.ID)
		assert.Equal(t, model.CategoryHomicide, got.Category)
		assert.Equal(t, model.StatusValidated, got.Status)
	})

	t.Run("geocoded", func(t *testing.T) {
		pt := model.Coordinate{Latitude: 14.66, Longitude: 121.07}
		svc, st := newTestService(t, WithGeocoder(fakeGeocoder{pt: &pt}))
		rec, err := svc.Record(ctx, admin, Draft{Category: "theft", Location: "Tandang Sora"})
		require.NoError(t, err)
		assert.Equal(t, pt, get(t, st, model.CollectionCrimes, rec.ID).Coordinate)
	})

	t.Run("outside area", func(t *testing.T) {
		pt := model.Coordinate{Latitude: 14.5995, Longitude: 120.9842}
		svc, _ := newTestService(t, WithGeocoder(fakeGeocoder{pt: &pt}))
		_, err := svc.Record(ctx, admin, Draft{Category: "theft", Location: "Manila"})
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("unresolved", func(t *testing.T) {
		svc, _ := newTestService(t, WithGeocoder(fakeGeocoder{}))
		_, err := svc.Record(ctx, admin, Draft{Category: "theft", Location: "nowhere"})
		assert.ErrorIs(t, err, ErrOutOfBounds)
	})

	t.Run("invalid category", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Record(ctx, admin, Draft{Location: "Holy Spirit", Coordinate: inArea})
		assert.ErrorIs(t, err, ErrInvalidCategory)
	})

	t.Run("user cannot record", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Record(ctx, userA, Draft{Category: "theft", Coordinate: inArea})
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})
}

func TestPenalize(t *testing.T) {
	ctx := context.Background()
	fns := &fakeCaller{}
	svc, st := newTestService(t, WithFunctions(fns))

	rec, err := svc.Submit(ctx, userA, Draft{Category: "theft", AdditionalInfo: "prank"})
	require.NoError(t, err)

	require.NoError(t, svc.Penalize(ctx, admin, rec.ID))
	_, err = st.GetIncident(ctx, model.CollectionReports, rec.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.Len(t, fns.calls, 1)
	assert.Equal(t, map[string]string{"uid": "user-a"}, fns.calls[0])

	assert.ErrorIs(t, svc.Penalize(ctx, admin, rec.ID), store.ErrNotFound)

	noFns, _ := newTestService(t)
	assert.ErrorIs(t, noFns.Penalize(ctx, admin, rec.ID), ErrNoFunctions)
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	_, err := st.InsertIncidents(ctx, model.CollectionCrimes, []model.IncidentRecord{
		{Category: model.CategoryUnknown, Coordinate: inArea, Status: model.StatusValidated},
		{Category: model.CategoryUnknown, Coordinate: inArea, Status: model.StatusValidated},
		{Category: model.CategoryTheft, Coordinate: inArea, Status: model.StatusValidated},
	})
	require.NoError(t, err)

	n, err := svc.Cleanup(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := st.FetchIncidents(ctx, model.CollectionCrimes, store.Query{})
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestApply_Batch(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	a, err := svc.Submit(ctx, userA, Draft{Category: "theft"})
	require.NoError(t, err)
	b, err := svc.Submit(ctx, userB, Draft{Category: "arson"})
	require.NoError(t, err)

	sum, err := svc.Apply(ctx, admin, ActionValidate, []string{a.ID, "missing", b.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, sum.Done)
	require.Len(t, sum.Failed, 1)
	assert.Equal(t, "missing", sum.Failed[0].ID)

	crimes, err := st.FetchIncidents(ctx, model.CollectionCrimes, store.Query{})
	require.NoError(t, err)
	assert.Len(t, crimes, 2)

	_, err = svc.Apply(ctx, userA, ActionValidate, []string{a.ID})
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestApply_Delete(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	a, err := svc.Submit(ctx, userA, Draft{Category: "theft"})
	require.NoError(t, err)

	sum, err := svc.Apply(ctx, admin, ActionDelete, []string{a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, sum.Done)
	_, err = st.GetIncident(ctx, model.CollectionReports, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestParseAction(t *testing.T) {
	t.Parallel()
	a, err := ParseAction(" Archive ")
	require.NoError(t, err)
	assert.Equal(t, ActionArchive, a)
	_, err = ParseAction("promote")
	assert.Error(t, err)
}
