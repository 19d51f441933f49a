package localstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryGetSet(t *testing.T) {
	s, err := OpenInMemory()
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set("k", []byte("v1")))
	require.NoError(t, s.Set("k", []byte("v2")))
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), v)
}

func TestOnDiskSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set("ghostTramProfile", []byte(`{"name":"x"}`)))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()
	v, err := s.Get("ghostTramProfile")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"x"}`, string(v))
}
