//go:build linux

package linux

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeGSettings(values map[string]string) Runner {
	return func(name string, args ...string) (string, error) {
		key := strings.Join(args[1:], " ")
		v, ok := values[key]
		if !ok {
			return "No such key", errors.New("exit status 1")
		}
		return v, nil
	}
}

func TestGSettingsIdleDelay(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    int
		wantErr bool
	}{
		{name: "typed", output: "uint32 300", want: 300},
		{name: "bare", output: "600\n", want: 600},
		{name: "zero", output: "uint32 0", want: 0},
		{name: "garbage", output: "uint32 abc", wantErr: true},
		{name: "empty", output: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGSettings(fakeGSettings(map[string]string{
				schemaSession + " idle-delay": tt.output,
			}))
			got, err := g.IdleDelay()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGSettingsLockEnabled(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   bool
	}{
		{
			name: "lock on",
			values: map[string]string{
				schemaScreensaver + " lock-enabled":            "true",
				schemaScreensaver + " idle-activation-enabled": "false",
			},
			want: true,
		},
		{
			name: "activation only",
			values: map[string]string{
				schemaScreensaver + " lock-enabled":            "false",
				schemaScreensaver + " idle-activation-enabled": "true",
			},
			want: true,
		},
		{
			name: "both off",
			values: map[string]string{
				schemaScreensaver + " lock-enabled":            "false",
				schemaScreensaver + " idle-activation-enabled": "false",
			},
			want: false,
		},
		{
			name: "old schema without activation key",
			values: map[string]string{
				schemaScreensaver + " lock-enabled": "false",
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewGSettings(fakeGSettings(tt.values)).LockEnabled()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGSettingsMissingSchema(t *testing.T) {
	_, err := NewGSettings(fakeGSettings(nil)).LockEnabled()
	assert.Error(t, err)
}
