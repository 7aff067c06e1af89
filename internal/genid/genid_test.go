package genid

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUIDHasTenDigits(t *testing.T) {
	for i := 0; i < 1000; i++ {
		uid := UID()
		require.Len(t, strconv.FormatInt(uid, 10), 10)
	}
}

func TestSerialIsTimestamp(t *testing.T) {
	s := Serial()
	require.NotEmpty(t, s)
	ms, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err)
	require.Greater(t, ms, int64(0))
}
