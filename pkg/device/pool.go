package device

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/alphadose/haxmap"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

func init() {
	Register("pool", func(cfg Config) (Device, error) { return OpenPool(cfg) })
}

// Pool is a Device backed by host memory and a bounded pool of goroutines.
// Each group of a launch becomes one task; at most `workers` tasks run at a
// time. Groups touch disjoint data, so scheduling order never changes the
// result.
type Pool struct {
	log     *logrus.Logger
	workers int
	slots   *semaphore.Weighted
	counter Counter

	bufs     *haxmap.Map[uint64, *poolBuffer]
	nextID   uint64
	live     int64
	resident int64

	closed uint32
}

type poolBuffer struct {
	id   uint64
	dev  *Pool
	data []byte
}

func (self *poolBuffer) Size() int {
	return len(self.data)
}

// OpenPool initializes the goroutine-pool backend. A worker count of zero
// selects runtime.NumCPU().
func OpenPool(cfg Config) (*Pool, error) {
	if cfg.Workers < 0 {
		return nil, errors.Wrapf(ErrNoDevice, "Invalid worker count %v", cfg.Workers)
	}

	log := cfg.Log
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	self := &Pool{
		log:     log,
		workers: workers,
		slots:   semaphore.NewWeighted((int64)(workers)),
		bufs:    haxmap.New[uint64, *poolBuffer](),
	}

	log.WithField("workers", workers).Debug("Opened pool device")
	return self, nil
}

func (self *Pool) Name() string {
	return "pool"
}

func (self *Pool) isClosed() bool {
	return atomic.LoadUint32(&self.closed) != 0
}

// Look a handle back up in the registry, rejecting buffers from other devices
// and handles that were already freed.
func (self *Pool) resolve(buf Buffer) (*poolBuffer, error) {
	pb, ok := buf.(*poolBuffer)
	if !ok || pb.dev != self {
		return nil, errors.Errorf("Buffer belongs to a different device")
	}
	if _, found := self.bufs.Get(pb.id); !found {
		return nil, errors.Errorf("Buffer %v was already freed", pb.id)
	}
	return pb, nil
}

func (self *Pool) NewBuffer(nbyte int) (Buffer, error) {
	if self.isClosed() {
		return nil, errors.Wrap(ErrTransfer, "Device is closed")
	}
	if nbyte < 0 {
		return nil, errors.Wrapf(ErrTransfer, "Invalid buffer size %v", nbyte)
	}

	pb := &poolBuffer{
		id:   atomic.AddUint64(&self.nextID, 1),
		dev:  self,
		data: make([]byte, nbyte),
	}
	self.bufs.Set(pb.id, pb)
	atomic.AddInt64(&self.live, 1)
	atomic.AddInt64(&self.resident, (int64)(nbyte))
	return pb, nil
}

func (self *Pool) Free(buf Buffer) error {
	if self.isClosed() {
		return errors.Wrap(ErrTransfer, "Device is closed")
	}
	pb, err := self.resolve(buf)
	if err != nil {
		return errors.Wrapf(ErrTransfer, "Free: %v", err)
	}

	self.bufs.Del(pb.id)
	atomic.AddInt64(&self.live, -1)
	atomic.AddInt64(&self.resident, -(int64)(len(pb.data)))
	return nil
}

func (self *Pool) Upload(dst Buffer, src []byte) error {
	if self.isClosed() {
		return errors.Wrap(ErrTransfer, "Device is closed")
	}
	pb, err := self.resolve(dst)
	if err != nil {
		return errors.Wrapf(ErrTransfer, "Upload: %v", err)
	}
	if len(src) != len(pb.data) {
		return errors.Wrapf(ErrTransfer, "Upload of %v bytes into a %v byte buffer", len(src), len(pb.data))
	}

	copy(pb.data, src)
	self.counter.AddHostToDevice(len(src))
	return nil
}

func (self *Pool) Download(dst []byte, src Buffer) error {
	if self.isClosed() {
		return errors.Wrap(ErrTransfer, "Device is closed")
	}
	pb, err := self.resolve(src)
	if err != nil {
		return errors.Wrapf(ErrTransfer, "Download: %v", err)
	}
	if len(dst) != len(pb.data) {
		return errors.Wrapf(ErrTransfer, "Download of %v bytes from a %v byte buffer", len(dst), len(pb.data))
	}

	copy(dst, pb.data)
	self.counter.AddDeviceToHost(len(dst))
	return nil
}

func (self *Pool) Launch(name string, grid Grid, fn KernelFunc, bufs ...Buffer) error {
	if self.isClosed() {
		return errors.Wrapf(ErrDispatch, "Kernel %v: device is closed", name)
	}
	if fn == nil {
		return errors.Wrapf(ErrDispatch, "Kernel %v has no body", name)
	}
	if grid.Groups < 0 || grid.GroupSize <= 0 {
		return errors.Wrapf(ErrDispatch, "Kernel %v has invalid grid %vx%v", name, grid.Groups, grid.GroupSize)
	}

	views := make([][]byte, len(bufs))
	for i, buf := range bufs {
		pb, err := self.resolve(buf)
		if err != nil {
			return errors.Wrapf(ErrDispatch, "Kernel %v argument %v: %v", name, i, err)
		}
		views[i] = pb.data
	}

	self.log.WithFields(logrus.Fields{
		"kernel": name,
		"groups": grid.Groups,
		"lanes":  grid.GroupSize,
	}).Debug("Launching kernel")

	var wg sync.WaitGroup
	wg.Add(grid.Groups)
	errChan := make(chan error, grid.Groups)
	for g := 0; g < grid.Groups; g++ {
		self.slots.Acquire(context.Background(), 1)
		go func(g int) {
			defer wg.Done()
			defer self.slots.Release(1)
			run := &GroupRun{Group: g, Grid: grid, Bufs: views}
			if err := fn(run); err != nil {
				errChan <- errors.Wrapf(err, "Group %v", g)
			}
		}(g)
	}
	wg.Wait()
	select {
	case firstErr := <-errChan:
		return errors.Wrapf(ErrDispatch, "Kernel %v failed: %v", name, firstErr)
	default:
	}
	return nil
}

func (self *Pool) Transfers() Transfers {
	return self.counter.Snapshot()
}

func (self *Pool) Close() error {
	if !atomic.CompareAndSwapUint32(&self.closed, 0, 1) {
		return errors.Wrap(ErrNoDevice, "Device already closed")
	}

	self.log.WithFields(logrus.Fields{
		"buffers": atomic.LoadInt64(&self.live),
		"bytes":   atomic.LoadInt64(&self.resident),
	}).Debug("Closed pool device")
	return nil
}
