package mounts

import (
	"fmt"
	"strings"

	"github.com/moby/sys/mountinfo"
)

// Table maps mount sources to their mountpoints.
type Table struct {
	bySource map[string][]string
}

// Load reads the mount table of the current process and keeps the mounts
// backed by a device node.
func Load() (*Table, error) {
	infos, err := mountinfo.GetMounts(deviceSourceFilter)
	if err != nil {
		return nil, fmt.Errorf("reading mount table: %w", err)
	}
	return FromInfo(infos), nil
}

// FromInfo builds a Table from already parsed mount entries.
func FromInfo(infos []*mountinfo.Info) *Table {
	t := &Table{bySource: make(map[string][]string)}
	for _, info := range infos {
		t.bySource[info.Source] = append(t.bySource[info.Source], info.Mountpoint)
	}
	return t
}

// Mountpoints returns where source is mounted, in mount table order.
func (t *Table) Mountpoints(source string) []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.bySource[source]...)
}

func deviceSourceFilter(info *mountinfo.Info) (skip, stop bool) {
	return !strings.HasPrefix(info.Source, "/dev/"), false
}
