//go:build windows

package uart

import (
	"context"
	"errors"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
	"golang.org/x/sys/windows/registry"
)

// Ports device setup class, from devguid.h
var guidPorts = windows.GUID{
	Data1: 0x4d36e978,
	Data2: 0xe325,
	Data3: 0x11ce,
	Data4: [8]byte{0xbf, 0xc1, 0x08, 0x00, 0x2b, 0xe1, 0x03, 0x18},
}

const (
	digcfPresent = 0x00000002

	spdrpHardwareID   = 0x00000001
	spdrpManufacturer = 0x0000000B
	spdrpFriendlyName = 0x0000000C
)

// getSerialPorts returns available serial ports on Windows. The SERIALCOMM
// registry key lists every live COM port; SetupAPI adds USB metadata for
// the ports it knows about.
func getSerialPorts(_ context.Context) ([]serialPort, error) {
	registryPorts, registryErr := registryCOMPorts()
	setupPorts, setupErr := setupAPICOMPorts()
	if registryErr != nil && setupErr != nil {
		return nil, errors.Join(registryErr, setupErr)
	}

	// Merge on path, letting the SetupAPI entry win since it carries
	// the metadata
	merged := make(map[string]serialPort)
	for _, port := range registryPorts {
		merged[port.Path] = port
	}
	for _, port := range setupPorts {
		merged[port.Path] = port
	}

	ports := make([]serialPort, 0, len(merged))
	for _, port := range merged {
		ports = append(ports, port)
	}
	return ports, nil
}

// registryCOMPorts reads HARDWARE\DEVICEMAP\SERIALCOMM, which maps driver
// names to COM port names
func registryCOMPorts() ([]serialPort, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE,
		`HARDWARE\DEVICEMAP\SERIALCOMM`, registry.QUERY_VALUE)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	values, err := key.ReadValueNames(-1)
	if err != nil {
		return nil, err
	}

	ports := make([]serialPort, 0, len(values))
	for _, value := range values {
		comPort, _, err := key.GetStringValue(value)
		if err != nil {
			continue
		}
		ports = append(ports, serialPort{Path: comPort, Name: comPort})
	}
	return ports, nil
}

type setupAPI struct {
	enumDeviceInfo      *windows.LazyProc
	getRegistryProperty *windows.LazyProc
	destroyDeviceList   *windows.LazyProc
	devInfo             uintptr
}

// setupAPICOMPorts enumerates the Ports device class through SetupAPI
func setupAPICOMPorts() ([]serialPort, error) {
	dll := windows.NewLazySystemDLL("setupapi.dll")
	api := &setupAPI{
		enumDeviceInfo:      dll.NewProc("SetupDiEnumDeviceInfo"),
		getRegistryProperty: dll.NewProc("SetupDiGetDeviceRegistryPropertyW"),
		destroyDeviceList:   dll.NewProc("SetupDiDestroyDeviceInfoList"),
	}

	devInfo, _, _ := dll.NewProc("SetupDiGetClassDevsW").Call(
		uintptr(unsafe.Pointer(&guidPorts)), 0, 0, digcfPresent)
	if devInfo == uintptr(windows.InvalidHandle) {
		return nil, windows.GetLastError()
	}
	api.devInfo = devInfo
	defer api.destroyDeviceList.Call(devInfo)

	type spDevinfoData struct {
		cbSize    uint32
		classGuid windows.GUID
		devInst   uint32
		reserved  uintptr
	}
	var data spDevinfoData
	data.cbSize = uint32(unsafe.Sizeof(data))

	var ports []serialPort
	for i := uint32(0); ; i++ {
		ret, _, _ := api.enumDeviceInfo.Call(
			devInfo, uintptr(i), uintptr(unsafe.Pointer(&data)))
		if ret == 0 {
			break
		}

		if port, ok := portFromDevice(api, unsafe.Pointer(&data)); ok {
			ports = append(ports, port)
		}
	}
	return ports, nil
}

// portFromDevice builds a serialPort from one enumerated device. Devices
// whose friendly name carries no "(COMn)" suffix are not serial ports.
func portFromDevice(api *setupAPI, devData unsafe.Pointer) (serialPort, bool) {
	name := api.property(devData, spdrpFriendlyName)
	comPort := comPortFromName(name)
	if comPort == "" {
		return serialPort{}, false
	}

	port := serialPort{
		Path:   comPort,
		Name:   name,
		VIDPID: hardwareVIDPID(api.property(devData, spdrpHardwareID)),
	}
	port.Manufacturer = api.property(devData, spdrpManufacturer)
	if n := strings.Index(name, " ("); n > 0 {
		port.Product = name[:n]
	}
	return port, true
}

// property reads a device registry property as a string, sizing the
// buffer with a first probe call. Returns "" when the property is absent.
func (api *setupAPI) property(devData unsafe.Pointer, prop uintptr) string {
	var size uint32
	api.getRegistryProperty.Call(
		api.devInfo, uintptr(devData), prop, 0, 0, 0,
		uintptr(unsafe.Pointer(&size)))
	if size == 0 {
		return ""
	}

	var propType uint32
	buf := make([]uint16, size/2)
	ret, _, _ := api.getRegistryProperty.Call(
		api.devInfo, uintptr(devData), prop,
		uintptr(unsafe.Pointer(&propType)),
		uintptr(unsafe.Pointer(&buf[0])), uintptr(size), 0)
	if ret == 0 {
		return ""
	}
	return windows.UTF16ToString(buf)
}

// comPortFromName pulls "COMn" out of a friendly name like
// "USB Serial Port (COM3)"
func comPortFromName(name string) string {
	n := strings.LastIndex(name, "(COM")
	if n < 0 {
		return ""
	}
	m := strings.Index(name[n:], ")")
	if m < 0 {
		return ""
	}
	return name[n+1 : n+m]
}

// hardwareVIDPID extracts "VID:PID" from a hardware ID of the form
// USB\VID_xxxx&PID_xxxx
func hardwareVIDPID(hwid string) string {
	hwid = strings.ToUpper(hwid)

	vid, ok := fourHexAfter(hwid, "VID_")
	if !ok {
		return ""
	}
	pid, ok := fourHexAfter(hwid, "PID_")
	if !ok {
		return ""
	}
	return vid + ":" + pid
}

// fourHexAfter returns the four hex digits following the first occurrence
// of marker
func fourHexAfter(s, marker string) (string, bool) {
	i := strings.Index(s, marker)
	if i < 0 || i+len(marker)+4 > len(s) {
		return "", false
	}

	hex := s[i+len(marker) : i+len(marker)+4]
	for j := 0; j < len(hex); j++ {
		c := hex[j]
		if (c < '0' || c > '9') && (c < 'A' || c > 'F') {
			return "", false
		}
	}
	return hex, true
}
