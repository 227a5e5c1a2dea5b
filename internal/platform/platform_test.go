package platform

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

type stubProvider struct {
	timeout    int
	enabled    bool
	timeoutErr error
	enabledErr error
	calls      int32
}

func (s *stubProvider) IdleTimeoutSeconds() (int, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.timeout, s.timeoutErr
}

func (s *stubProvider) IdleLockEnabled() (bool, error) {
	return s.enabled, s.enabledErr
}

func TestSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		p       *stubProvider
		want    IdleTimeoutConfig
		wantErr bool
	}{
		{name: "enabled", p: &stubProvider{timeout: 60, enabled: true}, want: IdleTimeoutConfig{TimeoutSeconds: 60, IdleLockEnabled: true}},
		{name: "disabled skips timeout", p: &stubProvider{timeout: 60, enabled: false}, want: IdleTimeoutConfig{}},
		{name: "negative clamps", p: &stubProvider{timeout: -5, enabled: true}, want: IdleTimeoutConfig{IdleLockEnabled: true}},
		{name: "enabled query fails", p: &stubProvider{enabledErr: errors.New("boom")}, wantErr: true},
		{name: "timeout query fails", p: &stubProvider{enabled: true, timeoutErr: errors.New("boom")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Snapshot(tt.p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	p := &stubProvider{timeout: 60, enabled: false}
	_, _ = Snapshot(p)
	assert.Zero(t, atomic.LoadInt32(&p.calls), "timeout must not be read when idle lock is disabled")
}

type scriptedClock struct {
	mu      sync.Mutex
	samples []time.Duration
	err     error
}

func (c *scriptedClock) IdleTime() (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return 0, c.err
	}
	if len(c.samples) == 0 {
		return time.Hour, nil
	}
	v := c.samples[0]
	if len(c.samples) > 1 {
		c.samples = c.samples[1:]
	}
	return v, nil
}

func (c *scriptedClock) set(samples ...time.Duration) {
	c.mu.Lock()
	c.samples = samples
	c.mu.Unlock()
}

func TestPollingObserverSignalsOnFreshInput(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	idle := &scriptedClock{samples: []time.Duration{10 * time.Second}}
	obs := NewPollingObserver(idle, time.Second, fc)

	var hits int32
	require.NoError(t, obs.Install(func() { atomic.AddInt32(&hits, 1) }))
	defer obs.Uninstall()

	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	// idle keeps growing: no activity
	idle.set(11 * time.Second)
	fc.Step(time.Second)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))

	// idle dropped below the poll interval: the user touched something
	idle.set(200 * time.Millisecond)
	fc.Step(time.Second)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, time.Millisecond)
}

func TestPollingObserverSignalsWhenIdleWentBackwards(t *testing.T) {
	fc := clocktesting.NewFakeClock(time.Now())
	idle := &scriptedClock{samples: []time.Duration{30 * time.Second}}
	obs := NewPollingObserver(idle, time.Second, fc)

	var hits int32
	require.NoError(t, obs.Install(func() { atomic.AddInt32(&hits, 1) }))
	defer obs.Uninstall()
	require.Eventually(t, fc.HasWaiters, time.Second, time.Millisecond)

	idle.set(5 * time.Second)
	fc.Step(time.Second)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 1 }, time.Second, time.Millisecond)
}

func TestPollingObserverInstallFailsWithoutClock(t *testing.T) {
	obs := NewPollingObserver(&scriptedClock{err: errors.New("no display")}, time.Second, nil)
	err := obs.Install(func() {})
	assert.Error(t, err)
	assert.NoError(t, obs.Uninstall())
}

func TestPollingObserverLifecycle(t *testing.T) {
	obs := NewPollingObserver(&scriptedClock{}, time.Second, clocktesting.NewFakeClock(time.Now()))

	assert.Error(t, obs.Install(nil))
	require.NoError(t, obs.Install(func() {}))
	assert.Error(t, obs.Install(func() {}), "second install must fail")

	assert.NoError(t, obs.Uninstall())
	assert.NoError(t, obs.Uninstall(), "uninstall must be idempotent")

	require.NoError(t, obs.Install(func() {}), "reinstall after uninstall")
	assert.NoError(t, obs.Uninstall())
}

func TestFileNotifier(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "user")
	other := filepath.Join(dir, "other")
	require.NoError(t, os.WriteFile(target, []byte("a"), 0o600))

	n := NewFileNotifier(target)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := n.Subscribe(ctx)
	require.NoError(t, err)
	defer n.Close()

	_, err = n.Subscribe(ctx)
	assert.Error(t, err, "second subscription must fail")

	require.NoError(t, os.WriteFile(other, []byte("x"), 0o600))
	select {
	case <-ch:
		t.Fatal("unrelated file must not notify")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(target, []byte("b"), 0o600))
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification for the watched file")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileNotifierMissingDirectory(t *testing.T) {
	n := NewFileNotifier(filepath.Join(t.TempDir(), "missing", "user"))
	_, err := n.Subscribe(context.Background())
	assert.Error(t, err)
	assert.NoError(t, n.Close())
}

func TestPlatformCloseOrder(t *testing.T) {
	var order []string
	p := &Platform{}
	p.OnClose(func() error { order = append(order, "display"); return nil })
	p.OnClose(func() error { order = append(order, "bus"); return errors.New("bus gone") })

	err := p.Close()
	assert.EqualError(t, err, "bus gone")
	assert.Equal(t, []string{"bus", "display"}, order)
	assert.NoError(t, p.Close(), "second close is a no-op")
}

func TestFileNotifierResubscribeAfterClose(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "user")

	n := NewFileNotifier(target)
	ch, err := n.Subscribe(context.Background())
	require.NoError(t, err)
	require.NoError(t, n.Close())
	require.NoError(t, n.Close(), "close is idempotent")

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	ch, err = n.Subscribe(context.Background())
	require.NoError(t, err)
	defer n.Close()

	require.NoError(t, os.WriteFile(target, []byte("c"), 0o600))
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a notification after resubscribing")
	}
}
