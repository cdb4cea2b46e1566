package blinky_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clambin/ledrotator/internal/blinky"
	"github.com/clambin/ledrotator/internal/board"
	"github.com/clambin/ledrotator/internal/configuration"
	"github.com/clambin/ledrotator/internal/sequence"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func makeConfig(mode, handoff string) configuration.Configuration {
	return configuration.Configuration{
		Mode:      mode,
		Port:      -1,
		Board:     configuration.BoardConfiguration{Type: configuration.BoardSimulated},
		Scheduler: configuration.SchedulerConfiguration{Tick: 100 * time.Microsecond, MaxTasks: 8},
		Rotation:  configuration.RotationConfiguration{Handoff: handoff, Hold: time.Millisecond},
		Sequence:  configuration.SequenceConfiguration{DelayTicks: 10},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     configuration.Configuration
		wantErr assert.ErrorAssertionFunc
		tasks   int
	}{
		{name: "rotation", cfg: makeConfig(configuration.ModeRotation, configuration.HandoffPriority), wantErr: assert.NoError, tasks: 3},
		{name: "token", cfg: makeConfig(configuration.ModeRotation, configuration.HandoffToken), wantErr: assert.NoError, tasks: 3},
		{name: "sequence", cfg: makeConfig(configuration.ModeSequence, ""), wantErr: assert.NoError, tasks: 1},
		{name: "invalid mode", cfg: makeConfig("foo", ""), wantErr: assert.Error},
		{name: "invalid handoff", cfg: makeConfig(configuration.ModeRotation, "foo"), wantErr: assert.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := blinky.New(tt.cfg, &board.Recorder{}, prometheus.NewPedanticRegistry())
			tt.wantErr(t, err)
			if err == nil {
				assert.Len(t, b.Scheduler.Snapshot().Tasks, tt.tasks)
			}
		})
	}
}

func TestNew_ClearAll(t *testing.T) {
	var recorder board.Recorder
	require.NoError(t, recorder.SetLED(board.Green, true))

	_, err := blinky.New(makeConfig(configuration.ModeSequence, ""), &recorder, nil)
	require.NoError(t, err)

	states, err := board.States(&recorder)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"red": false, "green": false, "blue": false}, states)
}

func TestBlinky_Run(t *testing.T) {
	r := prometheus.NewPedanticRegistry()
	b, err := blinky.New(makeConfig(configuration.ModeRotation, configuration.HandoffPriority), &board.Recorder{}, r)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() { errCh <- b.Run(ctx) }()

	assert.Eventually(t, func() bool {
		h := b.Health()
		return h.Active != "" && h.Elevated != ""
	}, 5*time.Second, time.Millisecond)

	w := httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health blinky.Health
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, configuration.ModeRotation, health.Mode)
	assert.Equal(t, configuration.HandoffPriority, health.Handoff)
	assert.Len(t, health.Scheduler.Tasks, 3)
	assert.Len(t, health.LEDs, board.ColorCount)

	w = httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ledrotator_rotation_handoffs_total")
	assert.Contains(t, w.Body.String(), `ledrotator_task_priority{task="red LED Task"}`)

	w = httptest.NewRecorder()
	b.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	cancel()
	assert.NoError(t, <-errCh)
}

func TestBlinky_Run_Server(t *testing.T) {
	cfg := makeConfig(configuration.ModeSequence, "")
	cfg.Port = 0
	b, err := blinky.New(cfg, &board.Recorder{}, nil)
	require.NoError(t, err)
	require.NotNil(t, b.HTTPServer)
	assert.NotZero(t, b.HTTPServer.Port)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() { errCh <- b.Run(ctx) }()

	assert.Eventually(t, func() bool { return b.Health().Cycles > 0 }, 5*time.Second, time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/health", b.HTTPServer.Port))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"Mode": "sequence"`)

	resp, err = http.Get(fmt.Sprintf("http://localhost:%d/metrics", b.HTTPServer.Port))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, <-errCh)
}

type mockBoard struct {
	mock.Mock
}

func (m *mockBoard) SetLED(color board.Color, on bool) error {
	args := m.Called(color, on)
	return args.Error(0)
}

func (m *mockBoard) ClearAll() error {
	args := m.Called()
	return args.Error(0)
}

func TestBlinky_Run_Failure(t *testing.T) {
	b := mockBoard{}
	b.On("ClearAll").Return(nil)
	b.On("SetLED", board.Red, true).Return(errors.New("fail")).Once()

	s, err := blinky.New(makeConfig(configuration.ModeRotation, configuration.HandoffPriority), &b, nil)
	require.NoError(t, err)

	err = s.Run(context.Background())
	assert.Error(t, err)

	h := s.Health()
	assert.Equal(t, board.Red.String(), h.Active)
	assert.Equal(t, board.Red.String(), h.Elevated)
	assert.Nil(t, h.LEDs)
	b.AssertExpectations(t)
}

func TestNew_NoServer(t *testing.T) {
	b, err := blinky.New(makeConfig(configuration.ModeSequence, ""), &board.Recorder{}, nil)
	require.NoError(t, err)
	assert.Nil(t, b.HTTPServer)
}

func TestNew_Failure(t *testing.T) {
	b := mockBoard{}
	b.On("ClearAll").Return(errors.New("fail"))

	_, err := blinky.New(makeConfig(configuration.ModeSequence, ""), &b, nil)
	assert.Error(t, err)
	b.AssertExpectations(t)
}

func TestHealth_Sequence(t *testing.T) {
	b, err := blinky.New(makeConfig(configuration.ModeSequence, ""), &board.Recorder{}, nil)
	require.NoError(t, err)

	h := b.Health()
	assert.Equal(t, configuration.ModeSequence, h.Mode)
	assert.Empty(t, h.Handoff)
	assert.Empty(t, h.Elevated)
	require.Len(t, h.Scheduler.Tasks, 1)
	assert.Equal(t, "LED Task", h.Scheduler.Tasks[0].Name)
	assert.Equal(t, sequence.Priority, h.Scheduler.Tasks[0].Priority)
}
