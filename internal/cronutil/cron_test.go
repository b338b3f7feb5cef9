package cronutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("*/5 * * * *"))
	require.Error(t, Validate("not a cron"))
}

func TestNext(t *testing.T) {
	from := time.Date(2026, 1, 1, 12, 2, 30, 0, time.UTC)
	next, err := Next("*/5 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 12, 5, 0, 0, time.UTC), next)
}

func TestNextRejectsInvalid(t *testing.T) {
	_, err := Next("garbage", time.Now())
	require.Error(t, err)
}
