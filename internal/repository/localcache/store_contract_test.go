package localcache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises behavior every Store backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("missing key reads as nil", func(t *testing.T) {
		s := newStore(t)
		got, err := s.Read(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("update writes the returned value", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.Update(ctx, "k", func(current []byte) ([]byte, error) {
			assert.Nil(t, current)
			return []byte("one"), nil
		})
		require.NoError(t, err)

		err = s.Update(ctx, "k", func(current []byte) ([]byte, error) {
			assert.Equal(t, "one", string(current))
			return append(current, []byte(",two")...), nil
		})
		require.NoError(t, err)

		got, err := s.Read(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "one,two", string(got))
	})

	t.Run("failed update leaves value untouched", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Update(ctx, "k", func([]byte) ([]byte, error) { return []byte("kept"), nil }))

		boom := errors.New("boom")
		err := s.Update(ctx, "k", func([]byte) ([]byte, error) { return nil, boom })
		assert.ErrorIs(t, err, boom)

		got, err := s.Read(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "kept", string(got))
	})

	t.Run("concurrent updates do not lose writes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		const writers = 20

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.Update(ctx, "counter", func(current []byte) ([]byte, error) {
					n := 0
					if len(current) > 0 {
						var err error
						if n, err = strconv.Atoi(string(current)); err != nil {
							return nil, err
						}
					}
					return []byte(strconv.Itoa(n + 1)), nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := s.Read(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(writers), string(got))
	})
}
