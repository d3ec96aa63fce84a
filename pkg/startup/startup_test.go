package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestStartup_StartsInDependencyOrderAndStopsInReverse(t *testing.T) {
	var events []string
	dep := func(name string, requires ...string) Func {
		return Func{
			Name:      name,
			Requires:  requires,
			StartFunc: func(context.Context) error { events = append(events, "start:"+name); return nil },
			StopFunc:  func(context.Context) error { events = append(events, "stop:"+name); return nil },
		}
	}

	s := NewStartup(silentLogger(), 1)
	s.AddDependency(dep("http", "database", "redis"))
	s.AddDependency(dep("database"))
	s.AddDependency(dep("redis"))

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"start:database", "start:redis", "start:http"}, events)
	assert.Equal(t, StatusStarted, s.Status("http"))

	events = nil
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"stop:http", "stop:redis", "stop:database"}, events)
	assert.Equal(t, StatusStopped, s.Status("database"))
}

func TestStartup_RetriesUntilDependencyStarts(t *testing.T) {
	calls := 0
	s := NewStartup(silentLogger(), 3)
	s.backoffUnit = time.Millisecond
	s.AddDependency(Func{Name: "database", StartFunc: func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 3, calls)
}

func TestStartup_FailsAfterMaxAttempts(t *testing.T) {
	s := NewStartup(silentLogger(), 2)
	s.backoffUnit = time.Millisecond
	s.AddDependency(Func{Name: "database", StartFunc: func(context.Context) error {
		return errors.New("connection refused")
	}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, StatusFailed, s.Status("database"))
}

func TestStartup_UnknownAndCyclicDependencies(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		s := NewStartup(silentLogger(), 1)
		s.AddDependency(Func{Name: "http", Requires: []string{"database"}})
		assert.ErrorContains(t, s.Start(context.Background()), "unknown startup dependency 'database'")
	})

	t.Run("cycle", func(t *testing.T) {
		s := NewStartup(silentLogger(), 1)
		s.AddDependency(Func{Name: "a", Requires: []string{"b"}})
		s.AddDependency(Func{Name: "b", Requires: []string{"a"}})
		assert.ErrorContains(t, s.Start(context.Background()), "cycle")
	})
}
