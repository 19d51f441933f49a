package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventCarriesData(t *testing.T) {
	env, err := NewEvent(ActionEntryDeleted, "guestbook", map[string]string{"id": "abc"})
	require.NoError(t, err)
	assert.NotEmpty(t, env.ID)
	assert.NotZero(t, env.Timestamp)

	raw, err := env.Marshal()
	require.NoError(t, err)

	back, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionEntryDeleted, back.Action)

	data, err := ParseData[map[string]string](back)
	require.NoError(t, err)
	assert.Equal(t, "abc", data["id"])
}

func TestNewError(t *testing.T) {
	env := NewError("subscribe", 400, "bad json")
	assert.Equal(t, "subscribe.error", env.Action)
	require.NotNil(t, env.Error)
	assert.Equal(t, 400, env.Error.Code)
}
