package audio

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/gordonklaus/portaudio"
)

// Device describes a PortAudio device.
type Device struct {
	Name            string
	MaxInput        int
	MaxOutput       int
	DefaultSampleHz float64
	HostAPI         string
	IsDefaultOutput bool
}

// ListDevices returns the devices of every host API sorted by host and name.
func ListDevices() ([]Device, error) {
	hosts, err := portaudio.HostApis()
	if err != nil {
		return nil, fmt.Errorf("host apis: %w", err)
	}

	devices := make([]Device, 0, len(hosts)*4)
	for _, host := range hosts {
		for _, d := range host.Devices {
			devices = append(devices, Device{
				Name:            d.Name,
				MaxInput:        d.MaxInputChannels,
				MaxOutput:       d.MaxOutputChannels,
				DefaultSampleHz: d.DefaultSampleRate,
				HostAPI:         host.Name,
				IsDefaultOutput: host.DefaultOutputDevice != nil && d.Index == host.DefaultOutputDevice.Index,
			})
		}
	}
	sortDevices(devices)
	return devices, nil
}

func sortDevices(devices []Device) {
	sort.Slice(devices, func(i, j int) bool {
		if devices[i].HostAPI == devices[j].HostAPI {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].HostAPI < devices[j].HostAPI
	})
}

// WriteDevices prints output-capable devices as a table. Default outputs
// are starred.
func WriteDevices(w io.Writer, devices []Device) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOST\tDEVICE\tOUT\tRATE")
	for _, d := range devices {
		if d.MaxOutput <= 0 {
			continue
		}
		name := d.Name
		if d.IsDefaultOutput {
			name += " *"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.0f\n", d.HostAPI, name, d.MaxOutput, d.DefaultSampleHz)
	}
	return tw.Flush()
}

func findOutputDevice(name string) (*portaudio.DeviceInfo, error) {
	if name == "" {
		dev, err := portaudio.DefaultOutputDevice()
		if err == nil && dev != nil && dev.MaxOutputChannels > 0 {
			return dev, nil
		}
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}
	if dev := matchOutput(devices, name); dev != nil {
		return dev, nil
	}
	if name != "" {
		return nil, fmt.Errorf("audio device %q not found", name)
	}
	return nil, fmt.Errorf("no audio output device found")
}

// matchOutput picks the first output device whose name contains name, or
// the one with the most channels when name is empty.
func matchOutput(devices []*portaudio.DeviceInfo, name string) *portaudio.DeviceInfo {
	name = strings.ToLower(name)
	var best *portaudio.DeviceInfo
	for _, d := range devices {
		if d == nil || d.MaxOutputChannels <= 0 {
			continue
		}
		if name != "" {
			if strings.Contains(strings.ToLower(d.Name), name) {
				return d
			}
			continue
		}
		if best == nil || d.MaxOutputChannels > best.MaxOutputChannels {
			best = d
		}
	}
	return best
}
