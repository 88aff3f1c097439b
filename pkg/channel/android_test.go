package channel

import (
	"errors"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	created []Channel
	err     error
}

func (r *recorder) CreateNotificationChannel(id, name string, importance int) error {
	if r.err != nil {
		return r.err
	}

	r.created = append(r.created, Channel{ID: id, Name: name, Importance: Importance(importance)})
	return nil
}

func TestEnsure(t *testing.T) {

	m := &recorder{}

	created, err := Ensure(25, Default(), m)
	require.NoError(t, err)
	require.False(t, created)
	require.Empty(t, m.created)

	created, err = Ensure(MinSDK, Default(), m)
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, []Channel{{ID: "flock_channel", Name: "Flock Notifications", Importance: ImportanceDefault}}, m.created)

	m.err = errors.New("denied")
	_, err = Ensure(34, Default(), m)
	require.EqualError(t, err, "channel: flock_channel: denied")
}

func TestNewConfig(t *testing.T) {

	c, err := NewConfig(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), c)

	src := viper.New()
	src.Set("id", "alerts")
	src.Set("importance", 4)

	c, err = NewConfig(src)
	require.NoError(t, err)
	require.Equal(t, &Channel{ID: "alerts", Name: "Flock Notifications", Importance: ImportanceHigh}, c)

	src.Set("importance", 9)
	_, err = NewConfig(src)
	require.Error(t, err)
}
