// Package device provides Android device management via ADB.
package device

import (
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// AndroidDevice manages an Android device connection via ADB.
type AndroidDevice struct {
	serial    string
	adbPath   string
	localPort int // local TCP port forwarded to the automation server
}

// DeviceInfo contains basic device information.
type DeviceInfo struct {
	Serial     string
	Model      string
	SDK        string
	Brand      string
	IsEmulator bool
}

// New creates an AndroidDevice for the given serial.
// If serial is empty, it auto-detects the connected device.
func New(serial string) (*AndroidDevice, error) {
	adbPath, err := findADB()
	if err != nil {
		return nil, err
	}

	if serial == "" {
		serial, err = detectDeviceSerial(adbPath)
		if err != nil {
			return nil, fmt.Errorf("no device specified and auto-detect failed: %w", err)
		}
	}

	d := &AndroidDevice{
		serial:  serial,
		adbPath: adbPath,
	}

	if err := d.waitForDevice(5 * time.Second); err != nil {
		return nil, fmt.Errorf("device not found: %w", err)
	}

	return d, nil
}

// detectDeviceSerial finds the first connected device serial.
func detectDeviceSerial(adbPath string) (string, error) {
	cmd := exec.Command(adbPath, "devices")
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}

	lines := strings.Split(string(out), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 && parts[1] == "device" {
			return parts[0], nil
		}
	}
	return "", fmt.Errorf("no connected devices found")
}

// Serial returns the device serial number.
func (d *AndroidDevice) Serial() string {
	return d.serial
}

// Shell executes a shell command on the device.
func (d *AndroidDevice) Shell(cmd string) (string, error) {
	return d.adb("shell", cmd)
}

// Install installs an APK on the device.
func (d *AndroidDevice) Install(apkPath string) error {
	_, err := d.adb("install", "-r", "-g", apkPath)
	return err
}

// IsInstalled checks if a package is installed.
func (d *AndroidDevice) IsInstalled(pkg string) bool {
	out, err := d.Shell("pm list packages " + pkg)
	if err != nil {
		return false
	}
	return strings.Contains(out, "package:"+pkg)
}

// Push copies a local file to the device.
func (d *AndroidDevice) Push(localPath, devicePath string) error {
	_, err := d.adb("push", localPath, devicePath)
	return err
}

// LaunchActivity starts an activity via `am start`.
func (d *AndroidDevice) LaunchActivity(pkg, activity string) error {
	_, err := d.Shell(fmt.Sprintf("am start -n %s/%s", pkg, activity))
	return err
}

// ForceStop kills all processes of a package.
func (d *AndroidDevice) ForceStop(pkg string) error {
	_, err := d.Shell("am force-stop " + pkg)
	return err
}

// ForegroundApp returns the package name of the focused activity, or
// an empty string if it cannot be determined.
func (d *AndroidDevice) ForegroundApp() (string, error) {
	out, err := d.Shell("dumpsys activity activities | grep -E 'mResumedActivity|mFocusedActivity'")
	if err != nil {
		return "", err
	}

	// Lines look like: mResumedActivity: ActivityRecord{... u0 com.example/.MainActivity t12}
	re := regexp.MustCompile(`([A-Za-z][A-Za-z0-9_.]+)/`)
	if m := re.FindStringSubmatch(out); m != nil {
		return m[1], nil
	}
	return "", nil
}

// IsForeground reports whether the given package owns the focused activity.
func (d *AndroidDevice) IsForeground(pkg string) bool {
	app, err := d.ForegroundApp()
	if err != nil {
		return false
	}
	return app == pkg
}

// RawTap injects a tap through the input subsystem, bypassing the
// automation server. Used as a last-resort fallback when the server
// cannot see an element.
func (d *AndroidDevice) RawTap(x, y int) error {
	_, err := d.Shell(fmt.Sprintf("input tap %d %d", x, y))
	return err
}

// PressBack injects the back key through the input subsystem.
func (d *AndroidDevice) PressBack() error {
	_, err := d.Shell("input keyevent 4")
	return err
}

// ScreenSize returns the device screen dimensions in pixels.
func (d *AndroidDevice) ScreenSize() (width, height int, err error) {
	out, err := d.Shell("wm size")
	if err != nil {
		return 0, 0, err
	}

	// Output: "Physical size: 1080x2400"
	re := regexp.MustCompile(`(\d+)x(\d+)`)
	m := re.FindStringSubmatch(out)
	if m == nil {
		return 0, 0, fmt.Errorf("cannot parse screen size from %q", strings.TrimSpace(out))
	}
	width, _ = strconv.Atoi(m[1])
	height, _ = strconv.Atoi(m[2])
	return width, height, nil
}

// Broadcast sends an intent broadcast, used to hand a freshly pushed
// image to the media scanner so the gallery picker can see it.
func (d *AndroidDevice) Broadcast(action string, dataURI string) error {
	cmd := fmt.Sprintf("am broadcast -a %s", action)
	if dataURI != "" {
		cmd += " -d " + dataURI
	}
	_, err := d.Shell(cmd)
	return err
}

// Forward creates a TCP port forward from local to device.
func (d *AndroidDevice) Forward(localPort, remotePort int) error {
	_, err := d.adb("forward", fmt.Sprintf("tcp:%d", localPort), fmt.Sprintf("tcp:%d", remotePort))
	return err
}

// RemoveForward removes a port forward.
func (d *AndroidDevice) RemoveForward(localPort int) error {
	_, err := d.adb("forward", "--remove", fmt.Sprintf("tcp:%d", localPort))
	return err
}

// LocalPort returns the local TCP port forwarded to the automation
// server, or 0 if it has not been started.
func (d *AndroidDevice) LocalPort() int {
	return d.localPort
}

// Info returns device information.
func (d *AndroidDevice) Info() (DeviceInfo, error) {
	info := DeviceInfo{Serial: d.serial}

	if model, err := d.Shell("getprop ro.product.model"); err == nil {
		info.Model = strings.TrimSpace(model)
	}
	if sdk, err := d.Shell("getprop ro.build.version.sdk"); err == nil {
		info.SDK = strings.TrimSpace(sdk)
	}
	if brand, err := d.Shell("getprop ro.product.brand"); err == nil {
		info.Brand = strings.TrimSpace(brand)
	}

	chars, _ := d.Shell("getprop ro.kernel.qemu")
	info.IsEmulator = strings.TrimSpace(chars) == "1"

	return info, nil
}

// adb executes an ADB command.
func (d *AndroidDevice) adb(args ...string) (string, error) {
	cmdArgs := make([]string, 0, len(args)+2)
	if d.serial != "" {
		cmdArgs = append(cmdArgs, "-s", d.serial)
	}
	cmdArgs = append(cmdArgs, args...)

	cmd := exec.Command(d.adbPath, cmdArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg == "" {
			errMsg = stdout.String()
		}
		return "", fmt.Errorf("adb %s: %w: %s", strings.Join(args, " "), err, errMsg)
	}

	return stdout.String(), nil
}

// waitForDevice waits for the device to be available.
func (d *AndroidDevice) waitForDevice(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if d.isConnected() {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for device %s", d.serial)
}

// isConnected checks if the device is connected.
func (d *AndroidDevice) isConnected() bool {
	out, err := d.adb("get-state")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "device"
}

// findADB locates the ADB binary.
func findADB() (string, error) {
	if path, err := exec.LookPath("adb"); err == nil {
		return path, nil
	}
	return "", fmt.Errorf("adb not found in PATH; ensure Android SDK is installed")
}
