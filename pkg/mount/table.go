package mount

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Entry is one mount from /proc/self/mountinfo.
type Entry struct {
	ID         int
	ParentID   int
	Root       string
	MountPoint string
	Options    string
	FSType     string
	Source     string
}

// Table answers questions about currently active mounts. The OS mount
// table is the single source of truth: the orchestrator keeps no mount
// state of its own, so a reboot or a manual umount can never leave stale
// bookkeeping behind.
type Table interface {
	// IsMountPoint reports whether path is currently a mountpoint.
	IsMountPoint(path string) (bool, error)

	// Entries returns all active mounts.
	Entries() ([]Entry, error)
}

// ProcTable reads the kernel mount table from /proc/self/mountinfo.
type ProcTable struct {
	path string
}

// NewProcTable returns a Table backed by /proc/self/mountinfo.
func NewProcTable() *ProcTable {
	return &ProcTable{path: "/proc/self/mountinfo"}
}

// NewProcTableAt returns a Table backed by an alternate mountinfo file.
// Tests use it with fixture data.
func NewProcTableAt(path string) *ProcTable {
	return &ProcTable{path: path}
}

// Entries parses the mountinfo file into entries.
func (t *ProcTable) Entries() ([]Entry, error) {
	f, err := os.Open(t.path)
	if err != nil {
		return nil, fmt.Errorf("opening mount table: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseMountinfoLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading mount table: %w", err)
	}
	return entries, nil
}

// IsMountPoint reports whether path appears as a mountpoint in the table.
// The path is resolved to its canonical form first so that a symlinked
// home directory compares equal to the kernel's view of it.
func (t *ProcTable) IsMountPoint(path string) (bool, error) {
	entries, err := t.Entries()
	if err != nil {
		return false, err
	}
	canonical := canonicalPath(path)
	for _, entry := range entries {
		if entry.MountPoint == canonical {
			return true, nil
		}
	}
	return false, nil
}

// parseMountinfoLine parses one mountinfo line:
//
//	36 35 98:0 /mnt1 /mnt2 rw,noatime master:1 - ext3 /dev/root rw
//
// The fields before the "-" separator are fixed plus a variable number of
// optional tags; the fields after it are fstype, source and super options.
func parseMountinfoLine(line string) (Entry, error) {
	fields := strings.Fields(line)
	if len(fields) < 9 {
		return Entry{}, fmt.Errorf("malformed mountinfo line: %q", line)
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return Entry{}, fmt.Errorf("malformed mount id in line: %q", line)
	}
	parentID, err := strconv.Atoi(fields[1])
	if err != nil {
		return Entry{}, fmt.Errorf("malformed parent id in line: %q", line)
	}

	sep := -1
	for i := 6; i < len(fields); i++ {
		if fields[i] == "-" {
			sep = i
			break
		}
	}
	if sep < 0 || sep+2 >= len(fields) {
		return Entry{}, fmt.Errorf("malformed mountinfo line: %q", line)
	}

	return Entry{
		ID:         id,
		ParentID:   parentID,
		Root:       unescapeMountPath(fields[3]),
		MountPoint: unescapeMountPath(fields[4]),
		Options:    fields[5],
		FSType:     fields[sep+1],
		Source:     unescapeMountPath(fields[sep+2]),
	}, nil
}

// mountinfo escapes space, tab, newline and backslash octally.
var mountPathUnescaper = strings.NewReplacer(
	`\040`, " ",
	`\011`, "\t",
	`\012`, "\n",
	`\134`, `\`,
)

func unescapeMountPath(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return mountPathUnescaper.Replace(s)
}

func canonicalPath(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	return filepath.Clean(path)
}
