package ledberry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = New(file)
	assert.Error(t, err)

	l, err := New(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, tmpDir, l.Path())
}

func TestLED_Set(t *testing.T) {
	tests := []struct {
		name          string
		maxBrightness string
		want          int
	}{
		{name: "default", want: 255},
		{name: "max brightness", maxBrightness: "1\n", want: 1},
		{name: "invalid max brightness", maxBrightness: "foo", want: 255},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			if tt.maxBrightness != "" {
				require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "max_brightness"), []byte(tt.maxBrightness), 0644))
			}
			l, err := New(tmpDir)
			require.NoError(t, err)

			_, err = l.Get()
			assert.Error(t, err)

			require.NoError(t, l.Set(true))
			value, err := l.GetBrightness()
			require.NoError(t, err)
			assert.Equal(t, tt.want, value)
			on, err := l.Get()
			require.NoError(t, err)
			assert.True(t, on)

			require.NoError(t, l.Set(false))
			content, err := os.ReadFile(filepath.Join(tmpDir, "brightness"))
			require.NoError(t, err)
			assert.Equal(t, "0", string(content))
			on, err = l.Get()
			require.NoError(t, err)
			assert.False(t, on)
		})
	}
}

func TestLED_GetModes(t *testing.T) {
	tests := []struct {
		name    string
		modes   string
		want    []string
		wantErr assert.ErrorAssertionFunc
	}{
		{
			name:    "valid",
			modes:   "[none] timer oneshot heartbeat\n",
			want:    []string{"none", "timer", "oneshot", "heartbeat"},
			wantErr: assert.NoError,
		},
		{
			name:    "nothing active",
			modes:   `none timer oneshot heartbeat`,
			want:    []string{"none", "timer", "oneshot", "heartbeat"},
			wantErr: assert.NoError,
		},
		{
			name:    "fail",
			wantErr: assert.Error,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLED(t, tt.modes)
			got, err := l.GetModes()
			assert.Equal(t, tt.want, got)
			tt.wantErr(t, err)
		})
	}
}

func TestLED_GetActiveMode(t *testing.T) {
	tests := []struct {
		name    string
		modes   string
		want    string
		wantErr assert.ErrorAssertionFunc
	}{
		{name: "none", modes: `[none] timer oneshot heartbeat`, want: "none", wantErr: assert.NoError},
		{name: "heartbeat", modes: `none timer oneshot [heartbeat]`, want: "heartbeat", wantErr: assert.NoError},
		{name: "no active mode", modes: `none timer oneshot heartbeat`, want: "", wantErr: assert.NoError},
		{name: "error", wantErr: assert.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLED(t, tt.modes)
			mode, err := l.GetActiveMode()
			assert.Equal(t, tt.want, mode)
			tt.wantErr(t, err)
		})
	}
}

func TestLED_SetActiveMode(t *testing.T) {
	tests := []struct {
		name    string
		modes   string
		mode    string
		want    string
		wantErr assert.ErrorAssertionFunc
	}{
		{name: "valid mode", modes: `[none] heartbeat`, mode: "heartbeat", want: "heartbeat", wantErr: assert.NoError},
		{name: "already active", modes: `[none] heartbeat`, mode: "none", want: "[none] heartbeat", wantErr: assert.NoError},
		{name: "invalid mode", modes: `[none] heartbeat`, mode: "invalid", wantErr: assert.Error},
		{name: "error", wantErr: assert.Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLED(t, tt.modes)
			err := l.SetActiveMode(tt.mode)
			tt.wantErr(t, err)
			if err == nil {
				got, err := os.ReadFile(filepath.Join(l.Path(), "trigger"))
				require.NoError(t, err)
				assert.Equal(t, tt.want, string(got))
			}
		})
	}
}

func newLED(t *testing.T, modes string) *LED {
	t.Helper()
	tmpDir := t.TempDir()
	if modes != "" {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "trigger"), []byte(modes), 0644))
	}
	l, err := New(tmpDir)
	require.NoError(t, err)
	return l
}
