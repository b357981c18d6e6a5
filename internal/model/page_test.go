package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageCount(t *testing.T) {
	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 1, PageCount(1, 10))
	assert.Equal(t, 1, PageCount(10, 10))
	assert.Equal(t, 3, PageCount(25, 10))
	assert.Equal(t, 0, PageCount(25, 0))
	assert.Equal(t, 1, PageCount(25, math.MaxInt))
}

func TestNewPageState(t *testing.T) {
	p := NewPageState(25, 10, 2)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext())
	assert.True(t, p.HasPrev())

	p = NewPageState(25, 0, 1)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.False(t, p.HasPrev())
}

func TestPageState_Clamp(t *testing.T) {
	p := NewPageState(25, 10, 1)
	assert.Equal(t, 1, p.Clamp(-3))
	assert.Equal(t, 3, p.Clamp(9))
	assert.Equal(t, 2, p.Clamp(2))

	empty := NewPageState(0, 10, 1)
	assert.Equal(t, 1, empty.Clamp(5))
}
