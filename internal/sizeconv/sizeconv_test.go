package sizeconv

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeIntToUintptr(t *testing.T) {
	assert.Equal(t, uintptr(42), SafeIntToUintptr(42))
	assert.Equal(t, uintptr(0), SafeIntToUintptr(-1))
}

func TestSafeUintptrToInt(t *testing.T) {
	assert.Equal(t, 42, SafeUintptrToInt(42))
	assert.Equal(t, math.MaxInt, SafeUintptrToInt(^uintptr(0)))
}

func TestAddOverflowsInt(t *testing.T) {
	assert.False(t, AddOverflowsInt(10, 20))
	assert.True(t, AddOverflowsInt(math.MaxInt, 1))
	assert.True(t, AddOverflowsInt(-1, 1))
}

func TestDoubleCapped(t *testing.T) {
	assert.Equal(t, 8, DoubleCapped(4, 1<<20))
	assert.Equal(t, 1<<20, DoubleCapped(1<<20, 1<<20))
	assert.Equal(t, 1<<20, DoubleCapped(math.MaxInt/2, 1<<20))
}

func TestSafeInt64ToInt(t *testing.T) {
	assert.Equal(t, 0, SafeInt64ToInt(-5))
	assert.Equal(t, 100, SafeInt64ToInt(100))
}
