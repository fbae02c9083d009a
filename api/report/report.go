package report

// Swaps is the structured output of "swap-tool list --json".
type Swaps []Swap

// Swap is one active swap area.
// Fields are the decoded kernel values. Bytes that are not valid UTF-8 are
// replaced with U+FFFD; SourceRaw then carries the exact bytes.
type Swap struct {
	Source    string `json:"source"`
	SourceRaw []byte `json:"source_raw,omitempty"`
	Type      string `json:"type"`
	Size      string `json:"size"`
	Used      string `json:"used"`
	Priority  string `json:"priority"`
}

// Checks is the structured output of "swap-tool check --json".
type Checks []Check

// Check is the result of checking one path.
type Check struct {
	Path        string      `json:"path"`
	Swapped     bool        `json:"swapped"`
	Mountpoints []string    `json:"mountpoints,omitempty"`
	Busy        bool        `json:"busy"`
	Partitions  []Partition `json:"partitions,omitempty"`
}

// Partition is the state of one partition of a checked disk.
type Partition struct {
	Node        string   `json:"node"`
	Swapped     bool     `json:"swapped"`
	Mountpoints []string `json:"mountpoints,omitempty"`
}
