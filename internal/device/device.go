// Package device enumerates the compute devices arrays can be placed on.
package device

import (
	"cmp"
	"errors"
	"runtime"
	"slices"
	"sync"

	"github.com/born-ml/lazy/internal/backend/webgpu"
	"github.com/born-ml/lazy/internal/tensor"
)

// Info describes one device.
type Info struct {
	Device  tensor.Device
	Name    string
	Vendor  string
	Backend string
	// Cores is the number of logical cores for host devices.
	Cores int
}

// Provider lists the devices of one class.
type Provider interface {
	Type() tensor.DeviceType
	Devices() ([]Info, error)
}

// Host aggregates providers.
type Host struct {
	mu        sync.RWMutex
	providers []Provider
}

// NewHost returns a host over the given providers.
func NewHost(providers ...Provider) *Host {
	return &Host{providers: providers}
}

// Add registers another provider.
func (h *Host) Add(p Provider) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.providers = append(h.providers, p)
}

// Devices lists every device ordered by class and index. A failing provider
// contributes its error; devices of the other providers are still returned.
func (h *Host) Devices() ([]Info, error) {
	h.mu.RLock()
	providers := slices.Clone(h.providers)
	h.mu.RUnlock()

	var (
		out  []Info
		errs []error
	)
	for _, p := range providers {
		infos, err := p.Devices()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, infos...)
	}
	slices.SortFunc(out, func(a, b Info) int {
		if c := cmp.Compare(a.Device.Type, b.Device.Type); c != 0 {
			return c
		}
		return cmp.Compare(a.Device.Index, b.Device.Index)
	})
	return out, errors.Join(errs...)
}

// Lookup returns the description of d.
func (h *Host) Lookup(d tensor.Device) (Info, bool) {
	infos, _ := h.Devices()
	for _, info := range infos {
		if info.Device == d {
			return info, true
		}
	}
	return Info{}, false
}

// Has reports whether at least one device of class t is present.
func (h *Host) Has(t tensor.DeviceType) bool {
	infos, _ := h.Devices()
	return slices.ContainsFunc(infos, func(i Info) bool { return i.Device.Type == t })
}

// CPU reports the host processor as the single device cpu:0.
type CPU struct{}

// Type implements Provider.
func (CPU) Type() tensor.DeviceType { return tensor.CPU }

// Devices implements Provider.
func (CPU) Devices() ([]Info, error) {
	return []Info{{
		Device:  tensor.NewDevice(tensor.CPU, 0),
		Name:    runtime.GOARCH,
		Vendor:  runtime.GOOS,
		Backend: "cpu",
		Cores:   runtime.NumCPU(),
	}}, nil
}

// GPU reports WebGPU adapters as gpu:0, gpu:1 and so on.
type GPU struct {
	// List enumerates adapters; nil means webgpu.ListAdapters.
	List func() ([]webgpu.AdapterInfo, error)
}

// Type implements Provider.
func (GPU) Type() tensor.DeviceType { return tensor.GPU }

// Devices implements Provider. A missing WebGPU runtime yields no devices.
func (g GPU) Devices() ([]Info, error) {
	list := g.List
	if list == nil {
		list = webgpu.ListAdapters
	}
	adapters, err := list()
	if errors.Is(err, webgpu.ErrUnavailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]Info, len(adapters))
	for i, a := range adapters {
		out[i] = Info{
			Device:  tensor.NewDevice(tensor.GPU, i),
			Name:    a.Name,
			Vendor:  a.Vendor,
			Backend: webgpu.Name,
		}
	}
	return out, nil
}
