package localstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercise(t *testing.T, s Store) {
	t.Helper()

	_, err := s.Get(KeyCart)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(KeyCart, []byte(`[1]`)))
	require.NoError(t, s.Set(KeyCart, []byte(`[2]`)), "overwrite")

	v, err := s.Get(KeyCart)
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(v))

	// other keys are independent
	_, err = s.Get(KeyOrders)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(KeyCart))
	_, err = s.Get(KeyCart)
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, s.Delete(KeyCart))
}

func TestInMemoryStore(t *testing.T) {
	exercise(t, NewInMemoryStore())
}

func TestInMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewInMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Set(KeyLanguage, buf))
	buf[0] = 'x'

	v, err := s.Get(KeyLanguage)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(v), "stored value aliased caller buffer")
}

func TestPebbleStore(t *testing.T) {
	st, err := NewPebbleStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	exercise(t, st)
}

func TestPebbleStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	st, err := NewPebbleStore(dir)
	require.NoError(t, err)
	require.NoError(t, st.Set(KeyOrders, []byte(`[{"id":"x"}]`)))
	require.NoError(t, st.Close())

	st, err = NewPebbleStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	v, err := st.Get(KeyOrders)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"x"}]`, string(v))
}
