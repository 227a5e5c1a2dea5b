//go:build darwin

package platform

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const (
	permissionWarnEvery = 60 * time.Second

	// scriptExecutionTimeout limits how long we wait for osascript to complete.
	// This protects against hangs if Accessibility is misconfigured or the
	// scripting environment is not responding.
	scriptExecutionTimeout = 3 * time.Second

	// macOS starts the screensaver after 20 minutes unless told otherwise.
	defaultDarwinIdleTime = 1200
)

var hidIdleTimeRe = regexp.MustCompile(`"HIDIdleTime"\s*=\s*(\d+)`)

// getIdleTime returns the system idle time on macOS
func getIdleTime() (time.Duration, error) {
	out, err := exec.Command("ioreg", "-c", "IOHIDSystem").Output()
	if err != nil {
		return 0, err
	}

	// HIDIdleTime is reported in nanoseconds
	matches := hidIdleTimeRe.FindSubmatch(out)
	if len(matches) < 2 {
		return 0, fmt.Errorf("HIDIdleTime not found in ioreg output")
	}

	nanos, err := strconv.ParseInt(string(matches[1]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse HIDIdleTime: %v", err)
	}

	return time.Duration(nanos), nil
}

func runJXAScript(parent context.Context, script string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(parent, scriptExecutionTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "osascript", "-l", "JavaScript", "-e", script)
	out, err := cmd.CombinedOutput()

	if parent.Err() != nil {
		return out, parent.Err()
	}
	if ctx.Err() == context.DeadlineExceeded {
		return out, fmt.Errorf("osascript timed out after %s", scriptExecutionTimeout)
	}

	return out, err
}

// screensaverDefaults reads the per-host screensaver preferences.
type screensaverDefaults struct{}

func (screensaverDefaults) readIdleTime() (int, error) {
	out, err := exec.Command("defaults", "-currentHost", "read", "com.apple.screensaver", "idleTime").CombinedOutput()
	if err != nil {
		if strings.Contains(string(out), "does not exist") {
			return defaultDarwinIdleTime, nil
		}
		return 0, errors.Wrapf(err, "defaults read idleTime: %s", strings.TrimSpace(string(out)))
	}
	secs, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, errors.Wrapf(err, "parse idleTime %q", strings.TrimSpace(string(out)))
	}
	return secs, nil
}

func (d screensaverDefaults) IdleTimeoutSeconds() (int, error) {
	return d.readIdleTime()
}

// IdleLockEnabled is false when the screensaver is set to "Never".
func (d screensaverDefaults) IdleLockEnabled() (bool, error) {
	secs, err := d.readIdleTime()
	if err != nil {
		return false, err
	}
	return secs > 0, nil
}

// jxaInjector warps the pointer with CoreGraphics events posted from JXA.
type jxaInjector struct {
	// last time we warned about Accessibility, unix nanos
	lastPermWarnNS int64
}

func (j *jxaInjector) CursorPosition() (Point, error) {
	script := `
ObjC.import('CoreGraphics');
var p = $.CGEventGetLocation($.CGEventCreate(null));
Math.round(p.x) + "," + Math.round(p.y);
`
	out, err := runJXAScript(context.Background(), script)
	if err != nil {
		return Point{}, fmt.Errorf("cursor query failed: %v (output: %q)", err, string(out))
	}
	return parseJXAPoint(string(out))
}

func parseJXAPoint(s string) (Point, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Point{}, errors.Errorf("unexpected cursor output %q", s)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return Point{}, errors.Wrapf(err, "parse cursor x %q", parts[0])
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return Point{}, errors.Wrapf(err, "parse cursor y %q", parts[1])
	}
	return Point{X: x, Y: y}, nil
}

func (j *jxaInjector) Inject(batch Batch) error {
	return j.InjectContext(context.Background(), batch)
}

// InjectContext kills the osascript process when ctx is cancelled.
func (j *jxaInjector) InjectContext(ctx context.Context, batch Batch) error {
	if len(batch) == 0 {
		return nil
	}
	out, err := runJXAScript(ctx, buildMoveScript(batch))
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		err = fmt.Errorf("osascript failed: %v (output: %q)", err, string(out))
		j.warnAccessibilityOnce(err)
		return err
	}
	return nil
}

func buildMoveScript(batch Batch) string {
	var b strings.Builder
	b.WriteString(`
ObjC.import('CoreGraphics');

function moveMouse(x, y) {
	var ev = $.CGEventCreateMouseEvent(null, $.kCGEventMouseMoved, {x: x, y: y}, $.kCGMouseButtonLeft);
	$.CGEventPost($.kCGHIDEventTap, ev);
}
`)
	for _, p := range batch {
		fmt.Fprintf(&b, "moveMouse(%d, %d);\n", p.X, p.Y)
	}
	b.WriteString("\"ok\";\n")
	return b.String()
}

func (j *jxaInjector) warnAccessibilityOnce(err error) {
	nowNS := time.Now().UnixNano()
	last := atomic.LoadInt64(&j.lastPermWarnNS)
	if last != 0 && time.Duration(nowNS-last) < permissionWarnEvery {
		return
	}
	atomic.StoreInt64(&j.lastPermWarnNS, nowNS)

	log.Warnf(
		"darwin: pointer injection blocked or failed (%v). On macOS you must enable Accessibility for the process doing the warp. If you run from Terminal, enable Terminal. If this is a packaged app, enable the app in System Settings, Privacy and Security, Accessibility.",
		err,
	)
}

// GetDependencyMessage returns empty string on macOS (no external dependencies needed)
func GetDependencyMessage() string {
	return ""
}

// New returns the macOS platform: HID idle polling, JXA pointer warps and
// the ByHost screensaver preferences.
func New(opts Options) (*Platform, error) {
	for _, tool := range []string{"ioreg", "osascript", "defaults"} {
		if _, err := exec.LookPath(tool); err != nil {
			return nil, errors.Wrapf(err, "darwin: %s not available", tool)
		}
	}

	p := &Platform{
		Name:              "darwin",
		Provider:          screensaverDefaults{},
		Observer:          NewPollingObserver(IdleClockFunc(getIdleTime), opts.IdlePollInterval, nil),
		Injector:          &jxaInjector{},
		DependencyMessage: GetDependencyMessage(),
	}

	if home, err := os.UserHomeDir(); err == nil {
		byHost := filepath.Join(home, "Library", "Preferences", "ByHost")
		if matches, _ := filepath.Glob(filepath.Join(byHost, "com.apple.screensaver.*.plist")); len(matches) > 0 {
			p.Notifier = NewFileNotifier(matches...)
		}
	}
	return p, nil
}

// Alert shows a dialog through osascript.
func Alert(title, message string) {
	script := fmt.Sprintf(`display dialog %s with title %s buttons {"OK"} default button "OK" with icon caution`,
		strconv.Quote(message), strconv.Quote(title))
	if out, err := exec.Command("osascript", "-e", script).CombinedOutput(); err != nil {
		log.Warnf("darwin: alert failed: %v (output: %q)", err, string(out))
	}
}
