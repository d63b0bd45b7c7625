//go:build linux

package uart

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// usbSerialGlobs covers the device names USB-serial adapters and on-board
// UARTs appear under on Linux
var usbSerialGlobs = []string{
	"/dev/ttyUSB*",
	"/dev/ttyACM*",
	"/dev/ttyAMA*",
}

// getSerialPorts returns available serial ports on Linux
func getSerialPorts(_ context.Context) ([]serialPort, error) {
	seen := make(map[string]bool)
	var ports []serialPort

	// /dev/serial/by-id entries carry the USB descriptor in their name
	// and resolve to the real device node
	byID, _ := filepath.Glob("/dev/serial/by-id/*")
	for _, link := range byID {
		target, err := filepath.EvalSymlinks(link)
		if err != nil {
			continue
		}
		if seen[target] {
			continue
		}
		seen[target] = true

		port := serialPort{
			Path: target,
			Name: filepath.Base(link),
		}
		fillSysfsMetadata(&port)
		ports = append(ports, port)
	}

	for _, glob := range usbSerialGlobs {
		matches, err := filepath.Glob(glob)
		if err != nil {
			continue
		}
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true

			port := serialPort{
				Path: path,
				Name: filepath.Base(path),
			}
			fillSysfsMetadata(&port)
			ports = append(ports, port)
		}
	}

	return ports, nil
}

// fillSysfsMetadata reads USB descriptor fields from sysfs. The USB device
// directory is a couple of levels above the tty device entry; walk up
// until idVendor appears.
func fillSysfsMetadata(port *serialPort) {
	devName := filepath.Base(port.Path)
	dir, err := filepath.EvalSymlinks(filepath.Join("/sys/class/tty", devName, "device"))
	if err != nil {
		return
	}

	for i := 0; i < 4; i++ {
		if _, err := os.Stat(filepath.Join(dir, "idVendor")); err == nil {
			vid := readSysfsValue(filepath.Join(dir, "idVendor"))
			pid := readSysfsValue(filepath.Join(dir, "idProduct"))
			if vid != "" && pid != "" {
				port.VIDPID = strings.ToUpper(vid + ":" + pid)
			}
			port.Manufacturer = readSysfsValue(filepath.Join(dir, "manufacturer"))
			port.Product = readSysfsValue(filepath.Join(dir, "product"))
			port.SerialNumber = readSysfsValue(filepath.Join(dir, "serial"))
			return
		}
		dir = filepath.Dir(dir)
	}
}

func readSysfsValue(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
