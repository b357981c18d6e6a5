package filter

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

func TestPaginate(t *testing.T) {
	t.Parallel()

	records := seq(25)

	tests := []struct {
		name     string
		size     int
		page     int
		wantLen  int
		wantHead int
	}{
		{"first page", 10, 1, 10, 1},
		{"last partial page", 10, 3, 5, 21},
		{"past the end", 10, 4, 0, 0},
		{"page zero", 10, 0, 0, 0},
		{"negative page", 10, -2, 0, 0},
		{"zero size", 0, 1, 0, 0},
		{"single page", 50, 1, 25, 1},
		{"max page", 2, math.MaxInt, 0, 0},
		{"max page and size", math.MaxInt, math.MaxInt, 0, 0},
		{"max size", math.MaxInt, 1, 25, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Paginate(records, tt.size, tt.page)
			assert.Len(t, got, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantHead, got[0])
			}
		})
	}
}

func TestPaginate_PagesRebuildInput(t *testing.T) {
	t.Parallel()

	for _, size := range []int{1, 3, 10} {
		for _, n := range []int{0, 1, size - 1, size, size + 1, 25} {
			t.Run(fmt.Sprintf("len=%d size=%d", n, size), func(t *testing.T) {
				records := seq(n)
				pages := Pages(n, size)

				joined := []int{}
				for p := 1; p <= pages; p++ {
					page := Paginate(records, size, p)
					assert.NotEmpty(t, page, "page %d", p)
					joined = append(joined, page...)
				}
				assert.Equal(t, records, joined)
				assert.Empty(t, Paginate(records, size, pages+1))
			})
		}
	}
}

func TestPaginate_ScenarioLastFive(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []int{21, 22, 23, 24, 25}, Paginate(seq(25), 10, 3))
	assert.Equal(t, []int{}, Paginate(seq(25), 10, 4))
}

func TestPaginate_AppendDoesNotClobberSource(t *testing.T) {
	t.Parallel()

	records := seq(25)
	page := Paginate(records, 10, 1)
	_ = append(page, 99)
	assert.Equal(t, 11, records[10])
}

func TestPages(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 3, Pages(25, 10))
	assert.Equal(t, 0, Pages(0, 10))
	assert.Equal(t, 1, Pages(10, 10))
}
