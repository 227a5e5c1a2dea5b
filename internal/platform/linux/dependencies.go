//go:build linux

package linux

import (
	"fmt"
	"strings"
)

// DependencyInfo contains information about a missing dependency and how to install it.
type DependencyInfo struct {
	Name        string
	WhyNeeded   string
	InstallCmd  string
	Optional    bool
	Alternative string
}

// packageNames maps a tool to its package name per package manager.
var packageNames = map[string]map[string]string{
	"gsettings": {
		"apt":    "libglib2.0-bin",
		"dnf":    "glib2",
		"yum":    "glib2",
		"pacman": "glib2",
		"zypper": "glib2-tools",
		"apk":    "glib",
	},
	"xtest": {
		"apt":    "libxtst6",
		"dnf":    "libXtst",
		"yum":    "libXtst",
		"pacman": "libxtst",
		"zypper": "libXtst6",
		"apk":    "libxtst",
	},
}

// GenerateInstallCommand generates a distro-specific installation command for the given tool.
func GenerateInstallCommand(tool string, distro DistroInfo) (cmd string, note string) {
	if tool == "" {
		return "", "Tool name is required"
	}

	byManager, ok := packageNames[strings.ToLower(tool)]
	if !ok {
		return "", fmt.Sprintf("Package name not available for tool '%s'", tool)
	}
	pkgName, ok := byManager[distro.PkgManager]
	if !ok {
		pkgName = tool
	}

	switch distro.PkgManager {
	case "apt":
		cmd = fmt.Sprintf("sudo apt update && sudo apt install %s", pkgName)
	case "dnf", "yum":
		cmd = fmt.Sprintf("sudo %s install %s", distro.PkgManager, pkgName)
	case "pacman":
		cmd = fmt.Sprintf("sudo pacman -S %s", pkgName)
	case "zypper":
		cmd = fmt.Sprintf("sudo zypper install %s", pkgName)
	case "apk":
		cmd = fmt.Sprintf("sudo apk add %s", pkgName)
	default:
		cmd = fmt.Sprintf("Install %s using your distribution's package manager", pkgName)
		note = fmt.Sprintf("Package name: %s. Check your distribution's repositories.", pkgName)
	}

	return cmd, note
}

// CheckMissingDependencies reports what keeps the deterrent from working with full fidelity.
// x11Err is the result of opening the X display, or nil when it succeeded.
func CheckMissingDependencies(caps Capabilities, x11Err error) []DependencyInfo {
	var missing []DependencyInfo
	distro := DetectDistribution()

	if caps.DesktopEnvironment == DesktopGNOME || caps.DesktopEnvironment == DesktopCosmic {
		if !caps.GSettingsAvailable {
			installCmd, note := GenerateInstallCommand("gsettings", distro)
			missing = append(missing, DependencyInfo{
				Name:        "gsettings",
				WhyNeeded:   "Reads the GNOME idle delay and lock settings",
				InstallCmd:  installCmd,
				Optional:    true,
				Alternative: joinNonEmpty(note, "The X11 screensaver timeout is used instead"),
			})
		}
	}

	if caps.DisplayServer == DisplayServerX11 && x11Err != nil {
		installCmd, note := GenerateInstallCommand("xtest", distro)
		missing = append(missing, DependencyInfo{
			Name:        "XTEST extension",
			WhyNeeded:   fmt.Sprintf("Injects absolute pointer motion (%v)", x11Err),
			InstallCmd:  installCmd,
			Optional:    true,
			Alternative: joinNonEmpty(note, "DBus SimulateUserActivity is used as fallback"),
		})
	}

	if caps.DisplayServer == DisplayServerWayland {
		missing = append(missing, DependencyInfo{
			Name:        "X11 session",
			WhyNeeded:   "Wayland compositors do not allow absolute pointer injection from clients",
			Optional:    true,
			Alternative: "DBus SimulateUserActivity and the Mutter idle monitor are used instead",
		})
	}

	return missing
}

func joinNonEmpty(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

// FormatDependencyMessages formats dependency information into user-friendly messages.
func FormatDependencyMessages(missing []DependencyInfo) string {
	if len(missing) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString("═══════════════════════════════════════════════════════════\n")
	b.WriteString("  Limited Deterrence Support Detected\n")
	b.WriteString("═══════════════════════════════════════════════════════════\n")
	b.WriteString("\n")

	for i, dep := range missing {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, dep.Name))
		b.WriteString(fmt.Sprintf("   Why needed: %s\n", dep.WhyNeeded))
		if dep.InstallCmd != "" {
			b.WriteString(fmt.Sprintf("   Install with: %s\n", dep.InstallCmd))
		}
		if dep.Alternative != "" {
			b.WriteString(fmt.Sprintf("   Alternative: %s\n", dep.Alternative))
		}
		b.WriteString("\n")
	}

	b.WriteString("═══════════════════════════════════════════════════════════\n")
	return b.String()
}

// GetDependencyMessage returns the formatted dependency message if dependencies are missing.
func GetDependencyMessage(x11Err error) string {
	missing := CheckMissingDependencies(DetectCapabilities(), x11Err)
	if len(missing) == 0 {
		return ""
	}
	msg := FormatDependencyMessages(missing)
	log.Infof("linux: missing dependencies detected:\n%s", msg)
	return msg
}
