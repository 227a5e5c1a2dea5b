//go:build linux

package linux

import (
	"sync"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/screensaver"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/pkg/errors"
)

// X11Session is a connection to the X server with the extensions the
// deterrent needs. The screensaver extension is optional.
type X11Session struct {
	mu   sync.Mutex
	conn *xgb.Conn
	root xproto.Window

	hasScreenSaver bool
	closed         bool
}

// OpenX11 connects to display (empty means $DISPLAY) and initialises XTEST.
func OpenX11(display string) (*X11Session, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, errors.Wrap(err, "connect to X server")
	}

	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "XTEST extension unavailable")
	}

	s := &X11Session{
		conn: conn,
		root: xproto.Setup(conn).DefaultScreen(conn).Root,
	}

	if err := screensaver.Init(conn); err != nil {
		log.Warnf("linux: MIT-SCREEN-SAVER extension unavailable: %v", err)
	} else {
		s.hasScreenSaver = true
	}

	return s, nil
}

// HasIdleClock reports whether IdleTime can be answered.
func (s *X11Session) HasIdleClock() bool {
	return s.hasScreenSaver
}

// IdleTime returns the time since the last real user input seen by the server.
func (s *X11Session) IdleTime() (time.Duration, error) {
	if !s.hasScreenSaver {
		return 0, errors.New("MIT-SCREEN-SAVER extension unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("X11 session closed")
	}

	info, err := screensaver.QueryInfo(s.conn, xproto.Drawable(s.root)).Reply()
	if err != nil {
		return 0, errors.Wrap(err, "query screensaver info")
	}
	return time.Duration(info.MsSinceUserInput) * time.Millisecond, nil
}

// ScreenSaverTimeout returns the server's screensaver timeout in seconds; zero means disabled.
func (s *X11Session) ScreenSaverTimeout() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("X11 session closed")
	}

	reply, err := xproto.GetScreenSaver(s.conn).Reply()
	if err != nil {
		return 0, errors.Wrap(err, "get screensaver")
	}
	return int(reply.Timeout), nil
}

// CursorPosition returns the pointer position relative to the root window.
func (s *X11Session) CursorPosition() (x, y int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, 0, errors.New("X11 session closed")
	}

	reply, err := xproto.QueryPointer(s.conn, s.root).Reply()
	if err != nil {
		return 0, 0, errors.Wrap(err, "query pointer")
	}
	return int(reply.RootX), int(reply.RootY), nil
}

// MoveAbsolute warps the pointer to (x, y) through XTEST so the server
// treats the motion as user input.
func (s *X11Session) MoveAbsolute(x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("X11 session closed")
	}

	// detail 0 selects absolute motion
	err := xtest.FakeInputChecked(s.conn, xproto.MotionNotify, 0, 0, s.root,
		clampInt16(x), clampInt16(y), 0).Check()
	if err != nil {
		return errors.Wrapf(err, "fake motion to (%d,%d)", x, y)
	}
	return nil
}

// Close disconnects from the X server. It is safe to call more than once.
func (s *X11Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.conn.Close()
	return nil
}

func clampInt16(v int) int16 {
	switch {
	case v > 32767:
		return 32767
	case v < -32768:
		return -32768
	}
	return int16(v)
}
