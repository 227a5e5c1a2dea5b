package deterrence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/nosleep/internal/platform"
)

// fakeInjector records batches and tracks where the cursor ends up.
type fakeInjector struct {
	mu      sync.Mutex
	cursor  platform.Point
	batches []platform.Batch
	posErr  error
	failAt  int
}

func (f *fakeInjector) CursorPosition() (platform.Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cursor, f.posErr
}

func (f *fakeInjector) Inject(batch platform.Batch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt > 0 && len(f.batches)+1 == f.failAt {
		f.failAt = 0
		return errors.New("queue full")
	}
	cp := append(platform.Batch(nil), batch...)
	f.batches = append(f.batches, cp)
	f.cursor = batch[len(batch)-1]
	return nil
}

func (f *fakeInjector) snapshot() ([]platform.Batch, platform.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]platform.Batch(nil), f.batches...), f.cursor
}

// slowInjector blocks in InjectContext until the burst is cancelled.
type slowInjector struct {
	fakeInjector
	entered chan struct{}
}

func (s *slowInjector) InjectContext(ctx context.Context, batch platform.Batch) error {
	close(s.entered)
	<-ctx.Done()
	return ctx.Err()
}

func quickOptions() Options {
	return Options{Offset: 3, Duration: 100 * time.Millisecond, Step: 10 * time.Millisecond}
}

func TestBatchFor(t *testing.T) {
	got := BatchFor(platform.Point{X: 100, Y: 200}, 3)
	assert.Equal(t, platform.Batch{{X: 103, Y: 200}, {X: 100, Y: 200}}, got)
}

func TestRunRoundTrip(t *testing.T) {
	origin := platform.Point{X: 640, Y: 480}
	inj := &fakeInjector{cursor: origin}
	logger, _ := test.NewNullLogger()
	b := New(inj, quickOptions(), nil, logger)

	start := time.Now()
	res, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)

	batches, cursor := inj.snapshot()
	assert.Equal(t, origin, cursor, "cursor must end where it started")
	assert.Equal(t, origin, res.Origin)
	assert.False(t, res.Interrupted)
	assert.Equal(t, len(batches), res.Batches)
	assert.GreaterOrEqual(t, res.Batches, 2)
	assert.LessOrEqual(t, res.Batches, 12)

	for i, batch := range batches {
		require.Len(t, batch, 2, "batch %d", i)
		assert.Equal(t, platform.Point{X: 643, Y: 480}, batch[0])
		assert.Equal(t, origin, batch[1])
	}
}

func TestRunCancelledRestoresOrigin(t *testing.T) {
	origin := platform.Point{X: 10, Y: 20}
	inj := &fakeInjector{cursor: origin}
	logger, _ := test.NewNullLogger()
	b := New(inj, Options{Offset: 3, Duration: time.Minute, Step: 10 * time.Millisecond}, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res, err := b.Run(ctx)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second, "cancellation must be prompt")
	assert.True(t, res.Interrupted)

	batches, cursor := inj.snapshot()
	assert.Equal(t, origin, cursor)
	assert.Equal(t, platform.Batch{origin}, batches[len(batches)-1], "final restore batch")
}

func TestRunCancelsBlockedInjection(t *testing.T) {
	origin := platform.Point{X: 10, Y: 20}
	inj := &slowInjector{fakeInjector: fakeInjector{cursor: origin}, entered: make(chan struct{})}
	logger, _ := test.NewNullLogger()
	b := New(inj, Options{Offset: 3, Duration: time.Minute, Step: 10 * time.Millisecond}, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := b.Run(ctx)
		done <- outcome{res, err}
	}()

	<-inj.entered
	cancel()

	select {
	case out := <-done:
		require.NoError(t, out.err)
		assert.True(t, out.res.Interrupted)
		assert.Equal(t, 0, out.res.Batches)
	case <-time.After(time.Second):
		t.Fatal("burst did not return after cancellation")
	}

	batches, cursor := inj.snapshot()
	assert.Equal(t, []platform.Batch{{origin}}, batches, "only the restore batch reaches the plain injector")
	assert.Equal(t, origin, cursor)
}

func TestRunCursorFailure(t *testing.T) {
	inj := &fakeInjector{posErr: errors.New("no display")}
	logger, _ := test.NewNullLogger()
	_, err := New(inj, quickOptions(), nil, logger).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read cursor position")

	batches, _ := inj.snapshot()
	assert.Empty(t, batches)
}

func TestRunInjectFailureStopsBurst(t *testing.T) {
	origin := platform.Point{X: 5, Y: 5}
	inj := &fakeInjector{cursor: origin, failAt: 3}
	logger, _ := test.NewNullLogger()

	res, err := New(inj, quickOptions(), nil, logger).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inject batch 3")
	assert.Equal(t, 2, res.Batches)

	batches, cursor := inj.snapshot()
	assert.Equal(t, origin, cursor)
	assert.Equal(t, platform.Batch{origin}, batches[len(batches)-1])
}

func TestNewAppliesDefaults(t *testing.T) {
	b := New(&fakeInjector{}, Options{}, nil, nil)
	assert.Equal(t, DefaultOptions(), b.Options())
}
