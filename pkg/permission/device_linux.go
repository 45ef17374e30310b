//go:build linux

package permission

import (
	"path/filepath"

	"golang.org/x/sys/unix"
)

// DefaultDevicePattern matches V4L2 capture nodes.
const DefaultDevicePattern = "/dev/video*"

// DeviceAccess returns a Probe that grants Camera when at least one device
// node matching pattern is readable and writable by this process.
func DeviceAccess(pattern string) Probe {
	if pattern == "" {
		pattern = DefaultDevicePattern
	}
	return func(p Permission) bool {
		if p != Camera {
			return true
		}
		nodes, err := filepath.Glob(pattern)
		if err != nil {
			return false
		}
		for _, node := range nodes {
			if unix.Access(node, unix.R_OK|unix.W_OK) == nil {
				return true
			}
		}
		return false
	}
}
