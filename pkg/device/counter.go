package device

import (
	"sync/atomic"
)

// Transfers reports the bytes a device has moved in each direction since it
// was opened.
type Transfers struct {
	HostToDevice uint64
	DeviceToHost uint64
}

// Counter is the transfer accountant shared by everything that moves bytes on
// one device. Adds are atomic so concurrent transfers can share it; totals
// only ever increase and are never reset.
type Counter struct {
	hostToDevice uint64
	deviceToHost uint64
}

func (self *Counter) AddHostToDevice(nbyte int) {
	atomic.AddUint64(&self.hostToDevice, (uint64)(nbyte))
}

func (self *Counter) AddDeviceToHost(nbyte int) {
	atomic.AddUint64(&self.deviceToHost, (uint64)(nbyte))
}

// Snapshot returns the totals at this instant.
func (self *Counter) Snapshot() Transfers {
	return Transfers{
		HostToDevice: atomic.LoadUint64(&self.hostToDevice),
		DeviceToHost: atomic.LoadUint64(&self.deviceToHost),
	}
}
