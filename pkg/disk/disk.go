package disk

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/partition"
	"github.com/diskfs/go-diskfs/partition/gpt"
	"github.com/diskfs/go-diskfs/partition/mbr"
)

// sysClassBlock lists every block device and, below each disk, its partitions.
const sysClassBlock = "/sys/class/block"

// sysfs reports start and size in 512-byte units regardless of the device's sector size.
const sysfsSectorSize = 512

// ErrStaleTable indicates the on-disk partition table has partitions the
// kernel has no device node for.
var ErrStaleTable = errors.New("partition table differs from the kernel's view")

// Partition is a partition the kernel created a device node for.
type Partition struct {
	// Number is the partition number in the kernel's device name.
	Number int
	Node   string
	// Start and Size are in bytes.
	Start int64
	Size  int64
}

// Extent is a used entry of an on-disk partition table, in bytes.
type Extent struct {
	Start int64
	Size  int64
}

// Partitions returns the partitions of the block device at path as the
// kernel sees them, including logical partitions inside an MBR extended
// partition. When the on-disk table is readable it must match that view.
func Partitions(path string) ([]Partition, error) {
	parts, err := kernelPartitions(sysClassBlock, path)
	if err != nil {
		return nil, err
	}
	extents, err := TablePartitions(path)
	if err != nil {
		// whole-disk use, no permission, or a table type go-diskfs cannot read
		return parts, nil
	}
	if err := matchTable(parts, extents); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return parts, nil
}

func kernelPartitions(sysRoot, path string) ([]Partition, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(sysRoot, filepath.Base(resolved))
	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading kernel partitions of %s: %w", path, err)
	}

	var parts []Partition
	for _, child := range children {
		if !child.IsDir() {
			continue
		}
		childDir := filepath.Join(dir, child.Name())
		number, err := readSysInt(filepath.Join(childDir, "partition"))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		start, err := readSysInt(filepath.Join(childDir, "start"))
		if err != nil {
			return nil, err
		}
		size, err := readSysInt(filepath.Join(childDir, "size"))
		if err != nil {
			return nil, err
		}
		parts = append(parts, Partition{
			Number: int(number),
			// sysfs spells "/" in device names as "!" (cciss!c0d0p1)
			Node:  "/dev/" + strings.ReplaceAll(child.Name(), "!", "/"),
			Start: start * sysfsSectorSize,
			Size:  size * sysfsSectorSize,
		})
	}
	slices.SortFunc(parts, func(a, b Partition) int {
		return a.Number - b.Number
	})
	return parts, nil
}

func readSysInt(path string) (int64, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(strings.TrimSpace(string(content)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", path, err)
	}
	return value, nil
}

// TablePartitions reads the partition table of the disk or image at path
// and returns its used entries. go-diskfs drops empty GPT slots and does
// not follow MBR extended partitions, so entries carry no slot numbers.
func TablePartitions(path string) ([]Extent, error) {
	disk, err := diskfs.Open(path, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return nil, fmt.Errorf("opening disk: %w", err)
	}
	defer disk.File.Close()
	table, err := disk.GetPartitionTable()
	if err != nil {
		return nil, fmt.Errorf("reading partition table of %s: %w", path, err)
	}
	return usedExtents(table)
}

func usedExtents(table partition.Table) ([]Extent, error) {
	var extents []Extent
	for _, part := range table.GetPartitions() {
		empty, err := isEmpty(part)
		if err != nil {
			return nil, err
		}
		if empty {
			continue
		}
		extents = append(extents, Extent{Start: part.GetStart(), Size: part.GetSize()})
	}
	return extents, nil
}

func isEmpty(part any) (bool, error) {
	switch part := part.(type) {
	case *gpt.Partition:
		return part == nil || part.Type == gpt.Unused, nil
	case *mbr.Partition:
		return part == nil || part.Type == mbr.Empty, nil
	default:
		return false, errors.New("partition is neither GPT nor MBR")
	}
}

// matchTable checks that every used table entry starts where a kernel
// partition starts. MBR extended partitions appear in both views with the
// same start, so only starts are compared.
func matchTable(parts []Partition, extents []Extent) error {
	for _, extent := range extents {
		found := slices.ContainsFunc(parts, func(p Partition) bool {
			return p.Start == extent.Start
		})
		if !found {
			return fmt.Errorf("%w: partition at byte %d has no device node", ErrStaleTable, extent.Start)
		}
	}
	return nil
}

// IsBlockDevice reports whether path refers to a block device.
func IsBlockDevice(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	mode := info.Mode()
	return mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0, nil
}
