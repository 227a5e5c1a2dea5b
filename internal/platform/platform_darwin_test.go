//go:build darwin

package platform

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJXAPoint(t *testing.T) {
	p, err := parseJXAPoint("640,480\n")
	require.NoError(t, err)
	assert.Equal(t, Point{X: 640, Y: 480}, p)

	for _, bad := range []string{"", "640", "a,b", "1,2,3"} {
		_, err := parseJXAPoint(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestBuildMoveScriptKeepsOrder(t *testing.T) {
	script := buildMoveScript(Batch{{X: 103, Y: 50}, {X: 100, Y: 50}})
	first := strings.Index(script, "moveMouse(103, 50);")
	second := strings.Index(script, "moveMouse(100, 50);")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
}

func TestGetIdleTime(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test in short mode")
	}
	idle, err := getIdleTime()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int64(idle), int64(0))
}

var _ ContextInjector = (*jxaInjector)(nil)

func TestJXAInjectorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := (&jxaInjector{}).InjectContext(ctx, Batch{{X: 1, Y: 1}})
	assert.ErrorIs(t, err, context.Canceled)
}
