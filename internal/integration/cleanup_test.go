package integration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stigoleg/nosleep/internal/single"
)

const helperEnv = "NOSLEEP_TEST_HELPER"

// startHelper re-runs the test binary as a long-lived engine process.
func startHelper(t *testing.T, mode string, extraEnv ...string) (*exec.Cmd, *bytes.Buffer) {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=^TestHelperProcess$")
	cmd.Env = append(append(os.Environ(), helperEnv+"="+mode), extraEnv...)
	var out bytes.Buffer
	cmd.Stdout = &out
	require.NoError(t, cmd.Start(), "helper process should start")
	return cmd, &out
}

func waitExit(t *testing.T, cmd *exec.Cmd) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		_ = cmd.Process.Kill()
		t.Fatal("process did not exit within timeout")
		return nil
	}
}

func TestCleanupOnSignal(t *testing.T) {
	if !signalsSupported {
		t.Skip("signals cannot be sent to another process on this platform")
	}
	if testing.Short() {
		t.Skip("skipping cleanup test in short mode")
	}

	for _, sig := range exitSignals() {
		sig := sig
		t.Run(sig.String(), func(t *testing.T) {
			cmd, out := startHelper(t, "engine")
			time.Sleep(500 * time.Millisecond)

			require.NoError(t, cmd.Process.Signal(sig))
			assert.NoError(t, waitExit(t, cmd), "process should exit cleanly after %v", sig)
			assert.Contains(t, out.String(), "teardown: observer,watcher,platform")
		})
	}
}

// TestSingleInstanceAcrossProcesses verifies the lock is held by a live process
// and released when it dies, even without cleanup.
func TestSingleInstanceAcrossProcesses(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping cleanup test in short mode")
	}
	dir := t.TempDir()

	cmd, _ := startHelper(t, "lock", "NOSLEEP_TEST_LOCK_DIR="+dir)
	defer func() { _ = cmd.Process.Kill() }()

	require.Eventually(t, func() bool {
		_, err := single.ReadPID(dir, "nosleep")
		return err == nil
	}, 5*time.Second, 20*time.Millisecond)

	_, err := single.AcquireIn(dir, "nosleep")
	assert.ErrorIs(t, err, single.ErrAlreadyRunning)

	require.NoError(t, cmd.Process.Kill())
	_ = cmd.Wait()

	g, err := single.AcquireIn(dir, "nosleep")
	require.NoError(t, err, "a killed holder must not keep the lock")
	require.NoError(t, g.Release())
}

// TestHelperProcess is the body of the helper processes above.
func TestHelperProcess(t *testing.T) {
	mode := os.Getenv(helperEnv)
	if mode == "" {
		return
	}

	switch mode {
	case "engine":
		os.Exit(runEngineHelper())
	case "lock":
		if _, err := single.AcquireIn(os.Getenv("NOSLEEP_TEST_LOCK_DIR"), "nosleep"); err != nil {
			os.Exit(2)
		}
		select {}
	default:
		os.Exit(3)
	}
}

func runEngineHelper() int {
	ctx, stop := signal.NotifyContext(context.Background(), exitSignals()...)
	defer stop()

	logger, _ := test.NewNullLogger()
	h := NewHarness(50*time.Millisecond, logger)
	if err := h.Keeper.Start(ctx); err != nil {
		return 1
	}
	<-ctx.Done()

	if err := h.Keeper.Shutdown(); err != nil {
		return 1
	}
	fmt.Printf("teardown: %s\n", strings.Join(h.Order(), ","))
	return 0
}
