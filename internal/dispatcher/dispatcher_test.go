package dispatcher

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatch_SyncHandler(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)

	d.Register(":APPLY:", func(e Event) (any, error) {
		return "applied", nil
	})

	result, err := d.Dispatch(Event{Command: ":APPLY:", Timestamp: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, "applied", result)
}

func TestDispatch_UnknownCommand(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)

	_, err = d.Dispatch(Event{Command: ":BOGUS:"})
	assert.Error(t, err)
}

func TestDispatch_HandlerError(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)

	wantErr := errors.New("nitrous depleted")
	d.Register(":NITRO:", func(e Event) (any, error) {
		return nil, wantErr
	})

	_, err = d.Dispatch(Event{Command: ":NITRO:"})
	assert.ErrorIs(t, err, wantErr)
}

func TestHasHandler(t *testing.T) {
	d, err := New(nil)
	require.NoError(t, err)

	assert.False(t, d.HasHandler(":RESET:"))
	d.Register(":RESET:", func(e Event) (any, error) { return nil, nil })
	assert.True(t, d.HasHandler(":RESET:"))
}

// recordingLogger captures messages for assertions.
type recordingLogger struct {
	debugs []string
	errors []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.debugs = append(l.debugs, msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  {}
func (l *recordingLogger) Error(msg string, _ ...any) { l.errors = append(l.errors, msg) }

func TestDispatch_LoggedHandler(t *testing.T) {
	log := &recordingLogger{}
	d, err := New(log)
	require.NoError(t, err)

	d.Register(":APPLY:", func(e Event) (any, error) {
		return nil, errors.New("bad key")
	}, Logged())

	_, err = d.Dispatch(Event{Command: ":APPLY:", Timestamp: time.Now()})
	require.Error(t, err)
	assert.NotEmpty(t, log.debugs)
	assert.NotEmpty(t, log.errors)
}
