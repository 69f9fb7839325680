package store

import (
	"context"
	"encoding/json/v2"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	N int `json:"n"`
}

func TestTransact_CreatesWhenAbsent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.Transact(ctx, "aggregate:test", func(current []byte, found bool) ([]byte, error) {
		assert.False(t, found)
		assert.Nil(t, current)
		return json.Marshal(counter{N: 1})
	})
	require.NoError(t, err)

	err = st.Transact(ctx, "aggregate:test", func(current []byte, found bool) ([]byte, error) {
		require.True(t, found)
		var c counter
		require.NoError(t, json.Unmarshal(current, &c))
		assert.Equal(t, 1, c.N)
		return current, nil
	})
	require.NoError(t, err)
}

func TestTransact_NilDeletesKey(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.Transact(ctx, "aggregate:gone", func(_ []byte, _ bool) ([]byte, error) {
		return json.Marshal(counter{N: 1})
	}))

	require.NoError(t, st.Transact(ctx, "aggregate:gone", func(_ []byte, found bool) ([]byte, error) {
		assert.True(t, found)
		return nil, nil
	}))

	err := st.Transact(ctx, "aggregate:gone", func(_ []byte, found bool) ([]byte, error) {
		assert.False(t, found)
		return nil, nil
	})
	require.NoError(t, err)
}

func TestTransact_ErrorAborts(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.Transact(ctx, "aggregate:none", func(_ []byte, _ bool) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestTransact_ConcurrentIncrementsAllLand(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	errs := make([]error, writers)

	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = st.Transact(ctx, "aggregate:shared", func(current []byte, found bool) ([]byte, error) {
				c := counter{}
				if found {
					if err := json.Unmarshal(current, &c); err != nil {
						return nil, err
					}
				}
				c.N++
				return json.Marshal(c)
			})
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "writer %d", i)
	}

	var final counter
	require.NoError(t, st.Transact(ctx, "aggregate:shared", func(current []byte, found bool) ([]byte, error) {
		require.True(t, found)
		require.NoError(t, json.Unmarshal(current, &final))
		return current, nil
	}))
	assert.Equal(t, writers, final.N, "no increment may be lost under contention")
}

func TestTransact_CanceledContext(t *testing.T) {
	st := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := st.Transact(ctx, "aggregate:x", func(_ []byte, _ bool) ([]byte, error) {
		t.Fatal("fn must not run after cancellation")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
