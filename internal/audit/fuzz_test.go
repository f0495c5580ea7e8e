package audit

import (
	"os"
	"path/filepath"
	"testing"
)

func FuzzVerify(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("{}\n"))
	f.Add([]byte(`{"ts":"x","event":"exec","subject":"ls","decision":"allow","prev_hash":"` + GenesisHash + `"}` + "\n"))
	f.Add([]byte("not json at all\n{}\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		dir := t.TempDir()
		path := filepath.Join(dir, "fuzz.jsonl")
		if err := os.WriteFile(path, data, 0600); err != nil {
			t.Skip()
		}
		// Must not panic on arbitrary log content.
		Verify(path)
	})
}
