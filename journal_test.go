package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJournal_SetGetHasKey(t *testing.T) {
	j := newJournal()
	defer j.release()

	key := CreateKey[int]("count")

	assert.False(t, HasKey(j, key))
	_, ok := GetKey(j, key)
	assert.False(t, ok)

	require.NoError(t, SetKey(j, key, 7, false))
	assert.True(t, HasKey(j, key))

	value, ok := GetKey(j, key)
	require.True(t, ok)
	assert.Equal(t, 7, value)
}

func TestJournal_SetKeyRejectsDuplicateWithoutOverride(t *testing.T) {
	j := newJournal()
	defer j.release()

	key := CreateKey[string]("name")
	require.NoError(t, SetKey(j, key, "first", false))

	err := SetKey(j, key, "second", false)
	require.Error(t, err)
	var inUse *JournalKeyInUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, "name", inUse.Key)

	value, ok := GetKey(j, key)
	require.True(t, ok)
	assert.Equal(t, "first", value, "failed write must not clobber the existing value")
}

func TestJournal_SetKeyOverrideReplacesExistingValue(t *testing.T) {
	j := newJournal()
	defer j.release()

	key := CreateKey[string]("name")
	require.NoError(t, SetKey(j, key, "first", false))
	require.NoError(t, SetKey(j, key, "second", true))

	value, ok := GetKey(j, key)
	require.True(t, ok)
	assert.Equal(t, "second", value)
}

func TestJournal_SharedIdWrongKeyTypeDoesNotTypeAssert(t *testing.T) {
	j := newJournal()
	defer j.release()

	strKey := CreateKey[string]("shared-id")
	require.NoError(t, SetKey(j, strKey, "hello", false))

	intKey := CreateKey[int]("shared-id")
	_, ok := GetKey(j, intKey)
	assert.False(t, ok, "stored value under the same id string but wrong type must not type-assert")
}

func TestJournalPool_ReleaseClearsValuesForReuse(t *testing.T) {
	before := JournalPoolStats()

	j := newJournal()
	key := CreateKey[int]("leftover")
	require.NoError(t, SetKey(j, key, 1, false))
	j.release()

	reused := newJournal()
	defer reused.release()
	assert.False(t, HasKey(reused, key), "released journal must be wiped before reuse")

	after := JournalPoolStats()
	assert.GreaterOrEqual(t, after.Hits+after.Misses, before.Hits+before.Misses+1)
}
