// Package dataset locates session files on disk and manages the output
// directory a run writes into.
package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"leavingrate/domain/core"
	"leavingrate/domain/metrics"
)

var sessionFilePattern = regexp.MustCompile(`^([SF])__P(\d+)_C(\d+)_S(\d+)_O(\d+)\.(txt|csv|xlsx)$`)

// SessionFile is a discovered input file and the key parsed from its name
type SessionFile struct {
	Path string             `json:"path"`
	Key  metrics.SessionKey `json:"key"`
}

// ParseFileName extracts the session key from a base file name. Tab
// separated .txt exports are the norm; .csv and .xlsx are accepted too.
// ok is false when the name does not follow the naming convention.
func ParseFileName(name string) (metrics.SessionKey, bool) {
	m := sessionFilePattern.FindStringSubmatch(name)
	if m == nil {
		return metrics.SessionKey{}, false
	}
	option, err := strconv.Atoi(m[5])
	if err != nil {
		return metrics.SessionKey{}, false
	}
	return metrics.SessionKey{
		RecordType:  metrics.RecordType(m[1]),
		Participant: core.ParticipantID(m[2]),
		Condition:   core.ConditionID(m[3]),
		Session:     core.SessionID(m[4]),
		Option:      option,
	}, true
}

// FileName renders the conventional file name for key
func FileName(key metrics.SessionKey) string {
	recordType := key.RecordType
	if recordType == "" {
		recordType = metrics.RecordFixation
	}
	return fmt.Sprintf("%s__P%s_C%s_S%s_O%d.txt", recordType, key.Participant, key.Condition, key.Session, key.Option)
}

// Discover walks root recursively and returns every session file whose name
// matches the convention, sorted by key then path. Other files are ignored.
func Discover(root string) ([]SessionFile, error) {
	var files []SessionFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		key, ok := ParseFileName(d.Name())
		if !ok {
			return nil
		}
		files = append(files, SessionFile{Path: path, Key: key})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Key != files[j].Key {
			return files[i].Key.Less(files[j].Key)
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

// Filter keeps the files of one record type
func Filter(files []SessionFile, recordType metrics.RecordType) []SessionFile {
	var out []SessionFile
	for _, f := range files {
		if f.Key.RecordType == recordType {
			out = append(out, f)
		}
	}
	return out
}

// Paths returns the file paths in order
func Paths(files []SessionFile) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Path
	}
	return out
}
