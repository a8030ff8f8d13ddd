// Package dataset provides a task tagged in-memory dataset stored as JSON
// lines, one record per line, grouped by task.
package dataset

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
	"github.com/taskgraph/famo"
	"github.com/taskgraph/famo/filesystem"
)

// Record is one regression example.
type Record struct {
	Task     int       `json:"task_id"`
	Features []float64 `json:"features"`
	Target   float64   `json:"target"`
}

func (r *Record) TaskID() int { return r.Task }

// Memory holds the concatenated records of all tasks.
type Memory []*Record

func (m Memory) Len() int { return len(m) }

func (m Memory) Example(i int) famo.Example { return m[i] }

// Load reads every file matching pattern in lexical order and concatenates
// their records. Task grouping is checked later by the partitioner.
func Load(client filesystem.Client, pattern string) (Memory, error) {
	paths, err := client.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: glob %s", pattern)
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("dataset: no file matches %s", pattern)
	}
	var m Memory
	for _, p := range paths {
		if m, err = readFile(client, p, m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func readFile(client filesystem.Client, path string, m Memory) (Memory, error) {
	r, err := client.OpenReadCloser(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer r.Close()
	m, err = Decode(r, m)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: %s", path)
	}
	return m, nil
}

// Decode appends the records of r to m. Blank lines are skipped.
func Decode(r io.Reader, m Memory) (Memory, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		rec := &Record{}
		if err := json.Unmarshal(scanner.Bytes(), rec); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		m = append(m, rec)
	}
	return m, scanner.Err()
}

// Save writes m to path as JSON lines.
func Save(client filesystem.Client, path string, m Memory) error {
	w, err := client.OpenWriteCloser(path)
	if err != nil {
		return errors.Wrapf(err, "dataset: create %s", path)
	}
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, rec := range m {
		if err := enc.Encode(rec); err != nil {
			w.Close()
			return errors.Wrapf(err, "dataset: write %s", path)
		}
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		return errors.Wrapf(err, "dataset: write %s", path)
	}
	return w.Close()
}
