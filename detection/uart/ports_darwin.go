//go:build darwin

package uart

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ioreg reports USB descriptor fields as quoted key/value pairs. The
// numeric IDs appear in decimal.
var (
	ioregCallout = regexp.MustCompile(`"IOCalloutDevice"\s*=\s*"([^"]+)"`)
	ioregVendor  = regexp.MustCompile(`"idVendor"\s*=\s*(\d+)`)
	ioregProduct = regexp.MustCompile(`"idProduct"\s*=\s*(\d+)`)
	ioregMfg     = regexp.MustCompile(`"USB Vendor Name"\s*=\s*"([^"]+)"`)
	ioregName    = regexp.MustCompile(`"USB Product Name"\s*=\s*"([^"]+)"`)
	ioregSerial  = regexp.MustCompile(`"USB Serial Number"\s*=\s*"([^"]+)"`)
)

// getSerialPorts returns available serial ports on macOS. ioreg supplies
// the USB metadata; when it is unavailable the /dev globs are used instead.
func getSerialPorts(ctx context.Context) ([]serialPort, error) {
	output, err := exec.CommandContext(ctx,
		"ioreg", "-r", "-c", "IOSerialBSDClient", "-a").Output()
	if err != nil {
		return globSerialPorts(), nil
	}

	var ports []serialPort
	for _, entry := range strings.Split(string(output), "+-o ") {
		if port, ok := parseIoregEntry(entry); ok {
			ports = append(ports, port)
		}
	}

	if len(ports) == 0 {
		return globSerialPorts(), nil
	}
	return ports, nil
}

// parseIoregEntry builds a serialPort from one ioreg registry entry
func parseIoregEntry(entry string) (serialPort, bool) {
	if !strings.Contains(entry, "IOSerialBSDClient") {
		return serialPort{}, false
	}

	m := ioregCallout.FindStringSubmatch(entry)
	if m == nil {
		return serialPort{}, false
	}

	port := serialPort{
		Path:         m[1],
		Name:         filepath.Base(m[1]),
		VIDPID:       ioregVIDPID(entry),
		Manufacturer: firstMatch(ioregMfg, entry),
		Product:      firstMatch(ioregName, entry),
		SerialNumber: firstMatch(ioregSerial, entry),
	}
	if !keepDarwinDevice(port.Name) {
		return serialPort{}, false
	}
	return port, true
}

// ioregVIDPID converts the decimal idVendor/idProduct pair into the
// canonical hex "VID:PID" form
func ioregVIDPID(entry string) string {
	vid := firstMatch(ioregVendor, entry)
	pid := firstMatch(ioregProduct, entry)
	if vid == "" || pid == "" {
		return ""
	}

	vidN, err := strconv.Atoi(vid)
	if err != nil {
		return ""
	}
	pidN, err := strconv.Atoi(pid)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%04X:%04X", vidN, pidN)
}

func firstMatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// globSerialPorts enumerates /dev directly, without metadata. The cu.*
// node is preferred because it does not wait for carrier detect; a tty.*
// node is only reported when its cu.* twin is absent.
func globSerialPorts() []serialPort {
	var ports []serialPort

	cuDevices, _ := filepath.Glob("/dev/cu.*")
	for _, path := range cuDevices {
		name := filepath.Base(path)
		if strings.HasPrefix(name, "cu.Bluetooth") || !keepDarwinDevice(name) {
			continue
		}
		ports = append(ports, serialPort{Path: path, Name: name})
	}

	ttyDevices, _ := filepath.Glob("/dev/tty.*")
	for _, path := range ttyDevices {
		name := filepath.Base(path)
		if strings.HasPrefix(name, "tty.Bluetooth") || !keepDarwinDevice(name) {
			continue
		}
		if hasCallout(path, ports) {
			continue
		}
		ports = append(ports, serialPort{Path: path, Name: name})
	}

	return ports
}

// hasCallout reports whether the cu.* twin of a tty.* path was already
// enumerated
func hasCallout(ttyPath string, ports []serialPort) bool {
	cuPath := strings.Replace(ttyPath, "/dev/tty.", "/dev/cu.", 1)
	for _, p := range ports {
		if p.Path == cuPath {
			return true
		}
	}
	return false
}

// adapterNames are substrings of device names used by common USB-serial
// bridge chips
var adapterNames = []string{
	"usbserial",
	"slab_usbtouart", // Silicon Labs CP210x
	"usbmodem",       // CDC-ACM, Arduino and friends
	"wchusbserial",   // WinChipHead CH340/CH341
}

// systemNames mark console and kernel endpoints that are never NFC readers
var systemNames = []string{"console", "debug", "system", "kernel"}

// keepDarwinDevice filters out system serial endpoints. Known adapter
// names are always kept; anything else passes unless it looks like a
// console device.
func keepDarwinDevice(deviceName string) bool {
	name := strings.ToLower(deviceName)

	for _, adapter := range adapterNames {
		if strings.Contains(name, adapter) {
			return true
		}
	}
	for _, sys := range systemNames {
		if strings.Contains(name, sys) {
			return false
		}
	}
	return true
}
