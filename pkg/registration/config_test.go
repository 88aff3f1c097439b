package registration

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {

	cfg, err := NewConfig(nil)
	require.NoError(t, err)
	require.Equal(t,
		&Config{
			ChannelName:  "com.flockbusiness/notifications",
			MaxAttempts:  3,
			RetryDelay:   2 * time.Second,
			FetchTimeout: 10 * time.Second,
			BannerMinOS:  14,
		},
		cfg)

	src := viper.New()
	src.Set("max-attempts", "5")
	src.Set("retry-delay", "500ms")

	cfg, err = NewConfig(src)
	require.NoError(t, err)
	require.Equal(t, 5, cfg.MaxAttempts)
	require.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
	require.Equal(t, DefaultChannelName, cfg.ChannelName)

	src.Set("retry-delay", "-1s")
	_, err = NewConfig(src)
	require.EqualError(t, err, "invalid `retry-delay`: -1s")
}

func TestRetryState(t *testing.T) {

	s := RetryState{Cycle: 7}
	require.True(t, s.CanRetry(3))

	s = s.Next().Next()
	require.Equal(t, RetryState{Cycle: 7, Attempt: 2}, s)
	require.False(t, s.CanRetry(3))
	require.False(t, RetryState{}.CanRetry(1))
}
