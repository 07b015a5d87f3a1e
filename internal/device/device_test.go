package device

import (
	"errors"
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lazy/internal/backend/webgpu"
	"github.com/born-ml/lazy/internal/tensor"
)

type failing struct{}

func (failing) Type() tensor.DeviceType { return tensor.GPU }
func (failing) Devices() ([]Info, error) { return nil, errors.New("driver crashed") }

func TestHostOrdersDevices(t *testing.T) {
	gpu := GPU{List: func() ([]webgpu.AdapterInfo, error) {
		return []webgpu.AdapterInfo{{Name: "A", Vendor: "v1"}, {Name: "B", Vendor: "v2"}}, nil
	}}
	h := NewHost(gpu, CPU{})

	infos, err := h.Devices()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "cpu:0", infos[0].Device.String())
	assert.Equal(t, runtime.NumCPU(), infos[0].Cores)
	assert.Equal(t, "gpu:0", infos[1].Device.String())
	assert.Equal(t, "A", infos[1].Name)
	assert.Equal(t, "gpu:1", infos[2].Device.String())
	assert.Equal(t, webgpu.Name, infos[2].Backend)

	info, ok := h.Lookup(tensor.NewDevice(tensor.GPU, 1))
	require.True(t, ok)
	assert.Equal(t, "v2", info.Vendor)
	_, ok = h.Lookup(tensor.NewDevice(tensor.GPU, 2))
	assert.False(t, ok)
	assert.True(t, h.Has(tensor.GPU))
}

func TestGPUUnavailable(t *testing.T) {
	gpu := GPU{List: func() ([]webgpu.AdapterInfo, error) {
		return nil, fmt.Errorf("%w: no adapter", webgpu.ErrUnavailable)
	}}
	infos, err := gpu.Devices()
	require.NoError(t, err)
	assert.Empty(t, infos)

	h := NewHost(CPU{})
	h.Add(gpu)
	assert.False(t, h.Has(tensor.GPU))
	assert.True(t, h.Has(tensor.CPU))
}

func TestHostKeepsHealthyProviders(t *testing.T) {
	h := NewHost(CPU{}, failing{})
	infos, err := h.Devices()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "driver crashed")
	require.Len(t, infos, 1)
	assert.Equal(t, tensor.CPU, infos[0].Device.Type)
}
