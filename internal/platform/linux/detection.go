//go:build linux

// Package linux talks to the X server, GNOME settings and the session bus.
package linux

import (
	"bufio"
	"os"
	"strings"
)

// Display server types.
const (
	DisplayServerWayland = "wayland"
	DisplayServerX11     = "x11"
	DisplayServerUnknown = "unknown"
)

// Desktop environment types.
const (
	DesktopCosmic  = "cosmic"
	DesktopGNOME   = "gnome"
	DesktopKDE     = "kde"
	DesktopXFCE    = "xfce"
	DesktopMATE    = "mate"
	DesktopUnknown = "unknown"
)

// Capabilities tracks available tools and system information for the Linux platform.
type Capabilities struct {
	GSettingsAvailable bool
	DBusSession        bool
	DisplayServer      string
	DesktopEnvironment string
}

// DetectCapabilities detects available tools and system configuration.
func DetectCapabilities() Capabilities {
	return Capabilities{
		GSettingsAvailable: hasCommand("gsettings"),
		DBusSession:        os.Getenv("DBUS_SESSION_BUS_ADDRESS") != "" || os.Getenv("XDG_RUNTIME_DIR") != "",
		DisplayServer:      DetectDisplayServer(),
		DesktopEnvironment: DetectDesktopEnvironment(),
	}
}

// UsesGSettings reports whether the desktop keeps its idle settings in the GNOME schema.
func (c Capabilities) UsesGSettings() bool {
	if !c.GSettingsAvailable {
		return false
	}
	switch c.DesktopEnvironment {
	case DesktopGNOME, DesktopCosmic:
		return true
	}
	return false
}

// DetectDesktopEnvironment detects the current desktop environment.
func DetectDesktopEnvironment() string {
	xdgDesktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
	desktopSession := strings.ToLower(os.Getenv("DESKTOP_SESSION"))

	// Pop!_OS reports either cosmic or pop
	if strings.Contains(xdgDesktop, DesktopCosmic) || strings.Contains(xdgDesktop, "pop") ||
		strings.Contains(desktopSession, DesktopCosmic) || strings.Contains(desktopSession, "pop") {
		return DesktopCosmic
	}

	if strings.Contains(xdgDesktop, DesktopGNOME) || strings.Contains(desktopSession, DesktopGNOME) ||
		strings.Contains(xdgDesktop, "unity") {
		return DesktopGNOME
	}

	if strings.Contains(xdgDesktop, DesktopKDE) || strings.Contains(desktopSession, DesktopKDE) ||
		strings.Contains(xdgDesktop, "plasma") {
		return DesktopKDE
	}

	if strings.Contains(xdgDesktop, DesktopXFCE) || strings.Contains(desktopSession, DesktopXFCE) {
		return DesktopXFCE
	}

	if strings.Contains(xdgDesktop, DesktopMATE) || strings.Contains(desktopSession, DesktopMATE) {
		return DesktopMATE
	}

	return DesktopUnknown
}

// DetectDisplayServer detects whether running on Wayland or X11.
func DetectDisplayServer() string {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return DisplayServerWayland
	}
	if os.Getenv("XDG_SESSION_TYPE") == DisplayServerWayland {
		return DisplayServerWayland
	}
	if os.Getenv("DISPLAY") != "" {
		return DisplayServerX11
	}
	if os.Getenv("XDG_SESSION_TYPE") == DisplayServerX11 {
		return DisplayServerX11
	}
	return DisplayServerUnknown
}

// DistroInfo contains information about the detected Linux distribution.
type DistroInfo struct {
	Name       string
	PkgManager string
}

// DetectDistribution detects the Linux distribution and package manager.
func DetectDistribution() DistroInfo {
	file, err := os.Open("/etc/os-release")
	if err != nil {
		return DistroInfo{Name: "unknown", PkgManager: detectPackageManager()}
	}
	defer file.Close()

	var id, idLike string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "ID=") {
			id = strings.Trim(strings.TrimPrefix(line, "ID="), "\"")
		}
		if strings.HasPrefix(line, "ID_LIKE=") {
			idLike = strings.Trim(strings.TrimPrefix(line, "ID_LIKE="), "\"")
		}
	}

	distro := strings.ToLower(id)
	if distro == "" {
		distro = "unknown"
	}

	return DistroInfo{Name: distro, PkgManager: packageManagerFor(distro, idLike)}
}

func packageManagerFor(distro, idLike string) string {
	switch {
	case distro == "debian" || distro == "ubuntu" || distro == "pop" ||
		strings.Contains(idLike, "debian") || strings.Contains(idLike, "ubuntu"):
		return "apt"
	case distro == "fedora" || distro == "rhel" || distro == "centos" ||
		strings.Contains(idLike, "fedora") || strings.Contains(idLike, "rhel"):
		if hasCommand("dnf") {
			return "dnf"
		}
		return "yum"
	case distro == "arch" || distro == "manjaro" || strings.Contains(idLike, "arch"):
		return "pacman"
	case strings.HasPrefix(distro, "opensuse") || strings.Contains(idLike, "suse"):
		return "zypper"
	case distro == "alpine":
		return "apk"
	default:
		return detectPackageManager()
	}
}

func detectPackageManager() string {
	for _, m := range []string{"apt", "dnf", "yum", "pacman", "zypper", "apk"} {
		if hasCommand(m) {
			return m
		}
	}
	return "unknown"
}
