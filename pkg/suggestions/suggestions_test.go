package suggestions

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestList(t *testing.T) {
	names, err := List()
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("embedded suggestions should not be empty")
	}
	if names[0] != "react" {
		t.Errorf("first suggestion = %q, want react (curated order preserved)", names[0])
	}

	seen := false
	for _, name := range names {
		if name == "lodash" {
			seen = true
			break
		}
	}
	if !seen {
		t.Error("suggestions should include lodash")
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packages.txt")
	content := "react\n\n# a comment\nlodash\n  vue  \n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	names, err := FromFile(path)
	if err != nil {
		t.Fatalf("FromFile() error: %v", err)
	}
	want := []string{"react", "lodash", "vue"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("FromFile() = %v, want %v", names, want)
	}
}

func TestFromFile_Missing(t *testing.T) {
	if _, err := FromFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("FromFile() of missing file should error")
	}
}
