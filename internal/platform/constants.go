package platform

import "time"

// Default tuning shared by all platforms.
const (
	// DefaultMargin is subtracted from the OS idle timeout to get the deterrence interval.
	DefaultMargin = 10 * time.Second

	// DefaultFloor is the shortest deterrence interval ever armed.
	DefaultFloor = 5 * time.Second

	// DefaultFallback is used when the idle timeout cannot be read and nothing is known yet.
	DefaultFallback = 50 * time.Second

	// DefaultOffsetPixels is how far the first instruction of a batch pushes the pointer.
	DefaultOffsetPixels = 3

	// DefaultBurstDuration is the total length of a deterrence burst.
	DefaultBurstDuration = 2 * time.Second

	// DefaultBurstStep is the pause between two batches inside a burst.
	DefaultBurstStep = 10 * time.Millisecond

	// DefaultIdlePollInterval is how often polling observers sample the idle clock.
	DefaultIdlePollInterval = 500 * time.Millisecond

	// DefaultSettingsPollInterval is how often the settings watcher re-reads the provider.
	DefaultSettingsPollInterval = 5 * time.Second

	// DefaultDebounce coalesces bursts of settings notifications.
	DefaultDebounce = 250 * time.Millisecond

	// DefaultSuppressGrace extends the self-suppression window past the end of a burst.
	DefaultSuppressGrace = 2 * time.Second

	// AbsoluteRange is the full normalised coordinate range used by absolute injection.
	AbsoluteRange = 65536
)
