package testing

import (
	"ssagen/config"

	"github.com/google/go-cmp/cmp"

	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestExtractError(t *testing.T) {
	tests := []struct {
		File string
		Want string
	}{
		{File: "dir/name.go", Want: ""},
		{File: "dir/name.E402.go", Want: "E402"},
		{File: "dir/name.v2.go", Want: ""},
		{File: "a.b/name.go", Want: ""},
	}
	for _, test := range tests {
		if got := extractError(test.File); got != test.Want {
			t.Errorf("extractError(%q) = %q, want %q", test.File, got, test.Want)
		}
	}
}

func TestTestdata(t *testing.T) {
	opt := Options{
		Target:  config.Default(),
		Timeout: 30 * time.Second,
		Jobs:    4,
	}
	results, err := TestFolder(context.Background(), filepath.Join("..", "testdata"), opt)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no files were tested")
	}
	for _, res := range results {
		if !res.Ok {
			t.Errorf("%v: %v", res.File, res.Message)
		}
	}
}

func TestFailures(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		// declares an error that never happens
		"fine.E402.go": "package prog\nfunc main() int { return 1 }\n",
		// fails with a different error
		"wrong.E302.go": "package prog\nfunc f(a, b int) int { return a }\nfunc main() int { return f(1, 2) }\n",
		// fails without declaring it
		"crash.go": "package prog\nfunc z() int { return 0 }\nfunc main() int { return 1 / z() }\n",
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	results, err := TestFolder(context.Background(), dir, Options{Target: config.Default(), Timeout: 30 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, res := range results {
		got[filepath.Base(res.File)] = res.Ok
	}
	want := map[string]bool{
		"fine.E402.go":  false,
		"wrong.E302.go": false,
		"crash.go":      false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("results (-want, +got):\n%s", diff)
	}
}
