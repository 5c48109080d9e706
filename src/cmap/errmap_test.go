package cmap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrMapGetOrSet(t *testing.T) {
	m := NewErrMap[string, int](SmallShardCount, XXHash, nil)
	calls := 0
	v, err := m.GetOrSet("a", func() (int, error) {
		calls++
		return 3, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = m.GetOrSet("a", func() (int, error) {
		calls++
		return 99, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, calls)
}

func TestErrMapPropagatesError(t *testing.T) {
	m := NewErrMap[string, int](SmallShardCount, XXHash, nil)
	wantErr := errors.New("boom")
	_, err := m.GetOrSet("a", func() (int, error) {
		return 0, wantErr
	})
	assert.Equal(t, wantErr, err)

	_, err = m.GetOrSet("a", func() (int, error) {
		t.Fatal("should not be called again")
		return 0, nil
	})
	assert.Equal(t, wantErr, err)
}
