// Package guard decides whether a device or file is safe to overwrite:
// it must not be an active swap area, and neither it nor any of its
// partitions may be swapped or mounted.
package guard

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/malt3/swap-tool/pkg/disk"
	"github.com/sirupsen/logrus"
)

// ErrBusy is returned by callers that refuse to proceed with a busy path.
var ErrBusy = errors.New("device is in use")

var discardLogger = &logrus.Logger{
	Out:       io.Discard,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.PanicLevel,
}

// SwapLookup is satisfied by *swaps.Table.
type SwapLookup interface {
	GetSwapped(path string) bool
}

// MountLookup is satisfied by *mounts.Table.
type MountLookup interface {
	Mountpoints(source string) []string
}

// PartitionLister lists the partitions of a disk.
// It returns no partitions and no error for paths that are not disks.
type PartitionLister interface {
	Partitions(path string) ([]disk.Partition, error)
}

// Checker checks paths against a swap table and, optionally, the mount
// table and the partitions of block devices.
type Checker struct {
	Swaps SwapLookup
	// Mounts is optional.
	Mounts MountLookup
	// Partitions is optional.
	Partitions PartitionLister
	Log        logrus.FieldLogger
}

// Status is the state of a single device node or file.
type Status struct {
	Path        string
	Swapped     bool
	Mountpoints []string
}

// Busy reports whether the node is swapped or mounted.
func (s Status) Busy() bool {
	return s.Swapped || len(s.Mountpoints) > 0
}

// Report is the result of checking one path.
type Report struct {
	Status
	Partitions []Status
}

// Busy reports whether the path or any of its partitions is in use.
func (r Report) Busy() bool {
	if r.Status.Busy() {
		return true
	}
	for _, part := range r.Partitions {
		if part.Busy() {
			return true
		}
	}
	return false
}

// Check reports whether path, or any of its partitions, is in use.
// Existing paths are resolved through symlinks, since the kernel lists
// swap areas and mounts by their canonical path.
func (c *Checker) Check(path string) (Report, error) {
	log := c.logger()
	given := filepath.Clean(path)
	path = given
	if resolved, err := filepath.EvalSymlinks(given); err == nil {
		path = resolved
	}
	report := Report{Status: c.status(path)}
	if path != given && c.Swaps != nil && c.Swaps.GetSwapped(given) {
		report.Swapped = true
	}
	log.WithFields(logrus.Fields{
		"path":    path,
		"swapped": report.Swapped,
		"mounted": len(report.Mountpoints) > 0,
	}).Debug("checked path")

	if c.Partitions == nil {
		return report, nil
	}
	parts, err := c.Partitions.Partitions(path)
	if err != nil {
		return Report{}, fmt.Errorf("listing partitions of %s: %w", path, err)
	}
	for _, part := range parts {
		status := c.status(part.Node)
		log.WithFields(logrus.Fields{
			"path":      path,
			"partition": part.Number,
			"node":      part.Node,
			"swapped":   status.Swapped,
			"mounted":   len(status.Mountpoints) > 0,
		}).Debug("checked partition")
		report.Partitions = append(report.Partitions, status)
	}
	return report, nil
}

func (c *Checker) status(path string) Status {
	status := Status{
		Path:    path,
		Swapped: c.Swaps != nil && c.Swaps.GetSwapped(path),
	}
	if c.Mounts != nil {
		status.Mountpoints = c.Mounts.Mountpoints(path)
	}
	return status
}

func (c *Checker) logger() logrus.FieldLogger {
	if c.Log == nil {
		return discardLogger
	}
	return c.Log
}

// DiskPartitions lists the kernel's partitions of block devices and treats
// every other path as having none.
type DiskPartitions struct{}

// Partitions returns the partitions of path if it is a block device.
func (DiskPartitions) Partitions(path string) ([]disk.Partition, error) {
	isBlock, err := disk.IsBlockDevice(path)
	if err != nil {
		return nil, err
	}
	if !isBlock {
		return nil, nil
	}
	return disk.Partitions(path)
}
