package session_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otot/posdash/pkg/session"
	"github.com/otot/posdash/pkg/storage"
)

func TestLoginDetailsStore(t *testing.T) {
	ctx := context.Background()

	t.Run("remember strips credentials", func(t *testing.T) {
		st := storage.NewMemoryStorage()
		details := session.NewLoginDetailsStore(st, nil)

		in := session.LoginDetails{
			SystemID:             "12",
			UserName:             "alice",
			Password:             "secret",
			MainDiskSerialNumber: "dev-0123",
		}
		require.NoError(t, details.Remember(ctx, in, true))

		raw, err := st.Get(ctx, storage.KeyLoginDetails)
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "secret")
		assert.NotContains(t, string(raw), "alice")

		got, ok := details.Load(ctx)
		require.True(t, ok)
		assert.Equal(t, in.Reduced(), *got)
		assert.True(t, details.AutoLogin(ctx))
	})

	t.Run("auto login defaults to false", func(t *testing.T) {
		details := session.NewLoginDetailsStore(storage.NewMemoryStorage(), nil)
		assert.False(t, details.AutoLogin(ctx))

		_, ok := details.Load(ctx)
		assert.False(t, ok)
	})

	t.Run("corrupted details read as none", func(t *testing.T) {
		st := storage.NewMemoryStorage()
		require.NoError(t, st.Set(ctx, storage.KeyLoginDetails, []byte("][")))
		require.NoError(t, st.Set(ctx, storage.KeyAutoLogin, []byte("maybe")))

		details := session.NewLoginDetailsStore(st, nil)
		_, ok := details.Load(ctx)
		assert.False(t, ok)
		assert.False(t, details.AutoLogin(ctx))
	})

	t.Run("system id", func(t *testing.T) {
		details := session.NewLoginDetailsStore(storage.NewMemoryStorage(), nil)
		assert.Empty(t, details.SystemID(ctx))

		require.NoError(t, details.SetSystemID(ctx, "42"))
		assert.Equal(t, "42", details.SystemID(ctx))

		require.NoError(t, details.SetSystemID(ctx, ""))
		assert.Empty(t, details.SystemID(ctx))
	})

	t.Run("forget", func(t *testing.T) {
		details := session.NewLoginDetailsStore(storage.NewMemoryStorage(), nil)
		require.NoError(t, details.Remember(ctx, session.LoginDetails{SystemID: "1"}, true))

		require.NoError(t, details.Forget(ctx))
		_, ok := details.Load(ctx)
		assert.False(t, ok)
		assert.False(t, details.AutoLogin(ctx))
		require.NoError(t, details.Forget(ctx))
	})

	t.Run("write failure reported", func(t *testing.T) {
		details := session.NewLoginDetailsStore(failingStorage{storage.NewMemoryStorage()}, nil)
		err := details.Remember(ctx, session.LoginDetails{SystemID: "1"}, false)
		assert.ErrorIs(t, err, storage.ErrWriteFailed)
	})

	t.Run("wire names", func(t *testing.T) {
		data, err := json.Marshal(session.LoginDetails{SystemID: "1", MainDiskSerialNumber: "dev"})
		require.NoError(t, err)
		assert.Contains(t, string(data), `"systemId":"1"`)
		assert.Contains(t, string(data), `"mainDiskSerialNumber":"dev"`)
	})
}
