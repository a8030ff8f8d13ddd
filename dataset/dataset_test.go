package dataset

import (
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/taskgraph/famo/filesystem"
	"github.com/taskgraph/famo/partition"
)

func TestDecode(t *testing.T) {
	in := `{"task_id":0,"features":[1,2],"target":3}

{"task_id":1,"features":[0.5],"target":-1}
`
	m, err := Decode(strings.NewReader(in), nil)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if m.Example(1).TaskID() != 1 || m[1].Target != -1 || m[0].Features[1] != 2 {
		t.Errorf("decoded %+v %+v", m[0], m[1])
	}

	if _, err := Decode(strings.NewReader("{\"task_id\":0}\nnot json\n"), nil); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Decode error = %v, want failure on line 2", err)
	}
}

func TestSaveLoadShards(t *testing.T) {
	dir := t.TempDir()
	client := filesystem.NewLocalFSClient()

	shards := []Memory{
		{{Task: 0, Target: 1}, {Task: 0, Target: 2}},
		{{Task: 1, Target: 3}},
		{{Task: 1, Target: 4}, {Task: 2, Target: 5}},
	}
	for i, s := range shards {
		path := filepath.Join(dir, "part-"+strconv.Itoa(i)+".jsonl")
		if err := Save(client, path, s); err != nil {
			t.Fatalf("#%d: Save failed: %v", i, err)
		}
	}

	m, err := Load(client, filepath.Join(dir, "part-*.jsonl"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Len() != 5 {
		t.Fatalf("Len = %d, want 5", m.Len())
	}
	for i, rec := range m {
		if rec.Target != float64(i+1) {
			t.Errorf("#%d: target = %v, want %d", i, rec.Target, i+1)
		}
	}

	ranges, err := partition.Split(m, 3)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if ranges[1].Start != 2 || ranges[1].End != 4 {
		t.Errorf("task 1 range = %v, want [2, 4)", ranges[1])
	}

	if _, err := Load(client, filepath.Join(dir, "missing-*")); err == nil {
		t.Errorf("Load of an empty glob succeeded")
	}
}
