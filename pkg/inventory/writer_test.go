package inventory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestVarWriterWriteAll(t *testing.T) {
	dir := t.TempDir()
	table := map[string]map[string]any{
		"web1": {"ansible_host": "10.0.0.1", "tier": "web"},
		"db1":  {"port": 5432},
	}

	writer := VarWriter{Dir: filepath.Join(dir, "host_vars")}
	if err := writer.WriteAll(table); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	for owner, want := range table {
		data, err := os.ReadFile(filepath.Join(dir, "host_vars", owner+".yml"))
		if err != nil {
			t.Fatalf("reading %s.yml: %v", owner, err)
		}

		got := map[string]any{}
		if err := yaml.Unmarshal(data, &got); err != nil {
			t.Fatalf("parsing %s.yml: %v", owner, err)
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s.yml content mismatch (-want +got):\n%s", owner, diff)
		}
	}
}
