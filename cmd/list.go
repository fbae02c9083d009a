package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/malt3/swap-tool/api/report"
	"github.com/malt3/swap-tool/pkg/swaps"
	"github.com/spf13/cobra"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print the swap table as json")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List active swap areas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := loadSwaps()
		if err != nil {
			return err
		}
		if listJSON {
			return printJSON(cmd, swapsReport(table))
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "SOURCE\tTYPE\tSIZE\tUSED\tPRIORITY")
		for _, entry := range table.Entries() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				displayBytes(entry.Source),
				displayBytes(entry.Kind),
				humanKiB(entry.Size),
				humanKiB(entry.Used),
				displayBytes(entry.Priority),
			)
		}
		return w.Flush()
	},
}

func swapsReport(table *swaps.Table) report.Swaps {
	out := report.Swaps{}
	for _, entry := range table.Entries() {
		swap := report.Swap{
			Source:   strings.ToValidUTF8(string(entry.Source), string(utf8.RuneError)),
			Type:     strings.ToValidUTF8(string(entry.Kind), string(utf8.RuneError)),
			Size:     strings.ToValidUTF8(string(entry.Size), string(utf8.RuneError)),
			Used:     strings.ToValidUTF8(string(entry.Used), string(utf8.RuneError)),
			Priority: strings.ToValidUTF8(string(entry.Priority), string(utf8.RuneError)),
		}
		if !utf8.Valid(entry.Source) {
			swap.SourceRaw = entry.Source
		}
		out = append(out, swap)
	}
	return out
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// displayBytes quotes values that would not print cleanly on a terminal.
func displayBytes(b []byte) string {
	s := string(b)
	if !utf8.ValidString(s) || strings.IndexFunc(s, func(r rune) bool { return !unicode.IsPrint(r) }) >= 0 {
		return strconv.Quote(s)
	}
	return s
}

// humanKiB renders a size the kernel reports in KiB.
func humanKiB(b []byte) string {
	kib, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return displayBytes(b)
	}
	return humanize.IBytes(kib * 1024)
}
