package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listo-ph/listo/internal/model"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, DefaultLocation)
}

func rec(id string, cat model.Category, occurred time.Time) model.IncidentRecord {
	return model.IncidentRecord{ID: id, Category: cat, OccurredAt: occurred, Status: model.StatusValidated}
}

func sample() []model.IncidentRecord {
	return []model.IncidentRecord{
		rec("a", model.CategoryTheft, at(2024, time.March, 5)),
		rec("b", model.CategoryRape, at(2024, time.March, 5)),
		rec("c", model.CategoryTheft, at(2024, time.April, 1)),
	}
}

func ids(records []model.IncidentRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestFilterByExactDate_Scenario(t *testing.T) {
	t.Parallel()

	day := model.CalendarDate{Year: 2024, Month: time.March, Day: 5}
	res := FilterByExactDate(sample(), day, NewCategorySet("theft"))

	assert.Equal(t, []string{"a"}, ids(res.Records))
	assert.Empty(t, res.Skipped)
}

func TestFilterByExactDate_EmptyCategoriesAllowsAll(t *testing.T) {
	t.Parallel()

	day := model.CalendarDate{Year: 2024, Month: time.March, Day: 5}
	res := FilterByExactDate(sample(), day, nil)

	assert.Equal(t, []string{"a", "b"}, ids(res.Records))
}

func TestFilterByExactDate_UsesLocation(t *testing.T) {
	t.Parallel()

	// 2024-03-04 20:00 UTC is 2024-03-05 04:00 in Manila.
	r := rec("late", model.CategoryFire, time.Date(2024, time.March, 4, 20, 0, 0, 0, time.UTC))
	day := model.CalendarDate{Year: 2024, Month: time.March, Day: 5}

	assert.Len(t, FilterByExactDate([]model.IncidentRecord{r}, day, nil).Records, 1)
	assert.Empty(t, FilterByExactDate([]model.IncidentRecord{r}, day, nil, WithLocation(time.UTC)).Records)
}

func TestFilterByExactDate_SkipsUndated(t *testing.T) {
	t.Parallel()

	records := append(sample(), rec("nodate", model.CategoryTheft, time.Time{}))
	day := model.CalendarDate{Year: 2024, Month: time.March, Day: 5}
	res := FilterByExactDate(records, day, NewCategorySet("theft"))

	assert.Equal(t, []string{"a"}, ids(res.Records))
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, Skip{ID: "nodate", Reason: ReasonUnparsableDate}, res.Skipped[0])
}

func TestFilterByExactDate_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	records := sample()
	before := append([]model.IncidentRecord(nil), records...)
	_ = FilterByExactDate(records, model.CalendarDate{Year: 2024, Month: time.March, Day: 5}, NewCategorySet("rape"))

	assert.Equal(t, before, records)
}

func TestFilterByMonth_Scenario(t *testing.T) {
	t.Parallel()

	res := FilterByMonth(sample(), model.MonthWindow{Year: 2024, Month: time.March}, nil)
	assert.Equal(t, []string{"a", "b"}, ids(res.Records))
}

func TestFilterByMonth_IgnoresDayAndFiltersCategory(t *testing.T) {
	t.Parallel()

	records := []model.IncidentRecord{
		rec("first", model.CategoryArson, at(2024, time.February, 1)),
		rec("leap", model.CategoryArson, at(2024, time.February, 29)),
		rec("other", model.CategoryTheft, at(2024, time.February, 14)),
		rec("march", model.CategoryArson, at(2024, time.March, 1)),
	}
	res := FilterByMonth(records, model.MonthWindow{Year: 2024, Month: time.February}, NewCategorySet("Arson"))

	assert.Equal(t, []string{"first", "leap"}, ids(res.Records))
}

func TestFilterByRange_Inclusive(t *testing.T) {
	t.Parallel()

	rng := model.DateRange{
		From: model.CalendarDate{Year: 2024, Month: time.March, Day: 5},
		To:   model.CalendarDate{Year: 2024, Month: time.April, Day: 1},
	}
	res := FilterByRange(sample(), rng, NewCategorySet("theft"))

	assert.Equal(t, []string{"a", "c"}, ids(res.Records))
}

func TestCategorySet_NormalizesLabels(t *testing.T) {
	t.Parallel()

	s := NewCategorySet(" Theft ", "ARSON")
	assert.True(t, s.Allows(model.CategoryTheft))
	assert.True(t, s.Allows(model.CategoryArson))
	assert.False(t, s.Allows(model.CategoryRape))
	assert.True(t, CategorySet(nil).Allows(model.CategoryRape))
}

func TestFilterByStatusAndOwner(t *testing.T) {
	t.Parallel()

	records := []model.IncidentRecord{
		{ID: "1", Status: model.StatusPending, OwnerID: "u1"},
		{ID: "2", Status: model.StatusValidated, OwnerID: "u1"},
		{ID: "3", Status: model.StatusPending, OwnerID: "u2"},
	}

	assert.Equal(t, []string{"1", "3"}, ids(FilterByStatus(records, model.StatusPending)))
	assert.Equal(t, []string{"1", "2"}, ids(FilterByOwner(records, "u1")))
}

func TestSearch(t *testing.T) {
	t.Parallel()

	records := []model.IncidentRecord{
		{ID: "1", Location: "Commonwealth Ave", Category: model.CategoryTheft, OccurredAt: at(2024, time.March, 5)},
		{ID: "2", Location: "Batasan Road", Category: model.CategoryFire, AdditionalInfo: "Near the market"},
		{ID: "3", Location: "Tandang Sora", Category: model.CategoryRobbery, OccurredAt: at(2023, time.July, 9)},
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"commonwealth", []string{"1"}},
		{"MARKET", []string{"2"}},
		{"robbery", []string{"3"}},
		{"2024-03", []string{"1"}},
		{"  ", []string{"1", "2", "3"}},
		{"nothing", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ids(Search(records, tt.query)))
		})
	}
}

func TestApply_IntersectionOfSingleFilters(t *testing.T) {
	t.Parallel()

	records := []model.IncidentRecord{
		{ID: "1", Category: model.CategoryTheft, OccurredAt: at(2024, time.March, 5), Status: model.StatusPending, OwnerID: "u1", Location: "Holy Spirit"},
		{ID: "2", Category: model.CategoryTheft, OccurredAt: at(2024, time.March, 6), Status: model.StatusValidated, OwnerID: "u1", Location: "Holy Spirit"},
		{ID: "3", Category: model.CategoryTheft, OccurredAt: at(2024, time.March, 7), Status: model.StatusPending, OwnerID: "u2", Location: "Holy Spirit"},
		{ID: "4", Category: model.CategoryFire, OccurredAt: at(2024, time.March, 8), Status: model.StatusPending, OwnerID: "u1", Location: "Holy Spirit"},
		{ID: "5", Category: model.CategoryTheft, OccurredAt: at(2024, time.April, 2), Status: model.StatusPending, OwnerID: "u1", Location: "Holy Spirit"},
		{ID: "6", Category: model.CategoryTheft, OccurredAt: at(2024, time.March, 9), Status: model.StatusPending, OwnerID: "u1", Location: "Batasan"},
	}

	pending := model.StatusPending
	window := model.MonthWindow{Year: 2024, Month: time.March}
	cats := NewCategorySet("theft")
	spec := Spec{Window: &window, Categories: cats, Status: &pending, OwnerID: "u1", Query: "spirit"}

	got := Apply(records, spec)

	step := FilterByMonth(records, window, cats).Records
	step = FilterByStatus(step, pending)
	step = FilterByOwner(step, "u1")
	step = Search(step, "spirit")

	assert.Equal(t, ids(step), ids(got.Records))
	assert.Equal(t, []string{"1"}, ids(got.Records))
}

func TestApply_NoDateCriterionNeverSkips(t *testing.T) {
	t.Parallel()

	records := []model.IncidentRecord{rec("x", model.CategoryTheft, time.Time{})}
	res := Apply(records, Spec{})

	assert.Equal(t, []string{"x"}, ids(res.Records))
	assert.Empty(t, res.Skipped)
}

func TestApply_ExactDate(t *testing.T) {
	t.Parallel()

	day := model.CalendarDate{Year: 2024, Month: time.April, Day: 1}
	res := Apply(sample(), Spec{Date: &day})

	assert.Equal(t, []string{"c"}, ids(res.Records))
}

func TestSpec_Period(t *testing.T) {
	day, err := model.ParseCalendarDate("2024-03-05")
	require.NoError(t, err)
	month, err := model.ParseMonthWindow("2024-03")
	require.NoError(t, err)
	end, err := model.ParseCalendarDate("2024-03-31")
	require.NoError(t, err)

	assert.Equal(t, "", Spec{}.Period())
	assert.Equal(t, "2024-03-05", Spec{Date: &day}.Period())
	assert.Equal(t, "2024-03", Spec{Window: &month}.Period())
	assert.Equal(t, "2024-03-05 to 2024-03-31", Spec{Range: &model.DateRange{From: day, To: end}}.Period())
}
