package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/malt3/swap-tool/api/report"
	"github.com/malt3/swap-tool/pkg/guard"
	"github.com/malt3/swap-tool/pkg/mounts"
	"github.com/spf13/cobra"
)

var (
	checkPartitions bool
	checkMounts     bool
	checkJSON       bool
	checkQuiet      bool
)

func init() {
	checkCmd.Flags().BoolVarP(&checkPartitions, "partitions", "p", false, "also check every partition of block devices")
	checkCmd.Flags().BoolVarP(&checkMounts, "mounts", "m", false, "also treat mounted devices as busy")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "print the results as json")
	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "only report through the exit code")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [path...]",
	Short: "Check whether devices or files are in use as swap",
	Long: `Checks every path against the active swap areas and exits non-zero if any
of them is busy. Symlinks such as /dev/disk/by-uuid/... are resolved first.
With --partitions, every partition the kernel knows for a block device is
checked as well, and the on-disk partition table must agree with it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadSwaps()
		if err != nil {
			return err
		}
		checker := guard.Checker{Swaps: table, Log: logger}
		if checkMounts {
			mountTable, err := mounts.Load()
			if err != nil {
				return err
			}
			checker.Mounts = mountTable
		}
		if checkPartitions {
			checker.Partitions = guard.DiskPartitions{}
		}

		var reports []guard.Report
		busy := false
		for _, path := range args {
			r, err := checker.Check(path)
			if err != nil {
				return fmt.Errorf("checking %s: %w", path, err)
			}
			busy = busy || r.Busy()
			reports = append(reports, r)
		}

		switch {
		case checkQuiet:
		case checkJSON:
			if err := printJSON(cmd, checksReport(reports)); err != nil {
				return err
			}
		default:
			for _, r := range reports {
				printStatus(cmd.OutOrStdout(), "", r.Status)
				for _, part := range r.Partitions {
					printStatus(cmd.OutOrStdout(), "  ", part)
				}
			}
		}
		if busy {
			return guard.ErrBusy
		}
		return nil
	},
}

func printStatus(w io.Writer, indent string, status guard.Status) {
	var state []string
	if status.Swapped {
		state = append(state, color.RedString("swapped"))
	}
	if len(status.Mountpoints) > 0 {
		state = append(state, color.YellowString("mounted on %s", strings.Join(status.Mountpoints, ", ")))
	}
	if len(state) == 0 {
		state = append(state, color.GreenString("free"))
	}
	fmt.Fprintf(w, "%s%s: %s\n", indent, status.Path, strings.Join(state, ", "))
}

func checksReport(reports []guard.Report) report.Checks {
	out := report.Checks{}
	for _, r := range reports {
		check := report.Check{
			Path:        r.Path,
			Swapped:     r.Swapped,
			Mountpoints: r.Mountpoints,
			Busy:        r.Busy(),
		}
		for _, part := range r.Partitions {
			check.Partitions = append(check.Partitions, report.Partition{
				Node:        part.Path,
				Swapped:     part.Swapped,
				Mountpoints: part.Mountpoints,
			})
		}
		out = append(out, check)
	}
	return out
}
