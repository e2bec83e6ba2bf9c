// Package device abstracts the compute substrate that runs bucketed sort
// passes: device-resident buffers, blocking host transfers, and blocking
// group-parallel kernel launches.
package device

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Sentinel causes for the failure categories a backend can report. Callers
// classify a failure by comparing errors.Cause(err) against these. All of them
// are fatal to the run that hit them, there are no retry semantics.
var (
	ErrNoDevice = errors.New("no usable compute device")
	ErrTransfer = errors.New("transfer failed")
	ErrDispatch = errors.New("dispatch failed")
)

// Grid describes the geometry of a launch: Groups independent work groups of
// GroupSize lanes each. The data covered by the last group may end before its
// last lane, kernels are expected to bounds-check.
type Grid struct {
	Groups    int
	GroupSize int
}

// GroupRun is the view one group's procedure gets of a launch: its own group
// index, the launch geometry, and the buffer arguments resolved to device
// memory (in the order they were passed to Launch).
type GroupRun struct {
	Group int // this group's index in [0, Grid.Groups)
	Grid  Grid
	Bufs  [][]byte
}

// KernelFunc runs one group's portion of a launch. Procedures for different
// groups may execute concurrently in any order, so a kernel must only write
// locations that no other group writes. Scalar arguments are captured when the
// kernel closure is built.
type KernelFunc func(run *GroupRun) error

// Buffer is an opaque handle to device-resident memory. A handle is only
// valid on the device that allocated it and only until it is freed.
type Buffer interface {
	Size() int
}

// Device is one compute device. Upload, Download and Launch all block until
// the operation has fully completed, which is what serializes the sort passes
// issued against it.
type Device interface {
	Name() string

	// NewBuffer allocates nbyte bytes of device memory. Free releases a
	// buffer; Close releases everything still live. Lifecycle failures
	// (foreign or freed handles, closed device) report ErrTransfer.
	NewBuffer(nbyte int) (Buffer, error)
	Free(buf Buffer) error

	// Upload copies len(src) bytes from the host into dst, Download copies
	// len(dst) bytes from src back out. Sizes must match the buffer exactly.
	// Every byte moved is added to the device's transfer counters.
	Upload(dst Buffer, src []byte) error
	Download(dst []byte, src Buffer) error

	// Launch runs fn once per group in grid. The name is only used for
	// logging and error reports.
	Launch(name string, grid Grid, fn KernelFunc, bufs ...Buffer) error

	// Transfers returns a snapshot of the byte counters. Totals never
	// decrease over the life of the device.
	Transfers() Transfers

	Close() error
}

// Config holds backend-independent open parameters.
type Config struct {
	// Workers caps how many groups run concurrently. Zero selects a backend
	// default (the pool backend uses the CPU count), negative is an error.
	Workers int

	// Log receives backend debug output. Nil gets a quiet default logger.
	Log *logrus.Logger
}

// Factory opens a device of one backend kind.
type Factory func(cfg Config) (Device, error)

var backends = map[string]Factory{}

// Register makes a backend available to Open. Called from backend inits.
func Register(name string, factory Factory) {
	backends[name] = factory
}

// Open initializes the named backend. Unknown names report ErrNoDevice.
func Open(name string, cfg Config) (Device, error) {
	factory, ok := backends[name]
	if !ok {
		return nil, errors.Wrapf(ErrNoDevice, "No backend named %q", name)
	}
	return factory(cfg)
}
