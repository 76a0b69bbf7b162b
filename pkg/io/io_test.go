package io

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/errors"
)

func newLogger() *log.Logger {
	return log.New(io.Discard)
}

func buildDoc(t *testing.T) *document.Document {
	t.Helper()
	d := document.New(newLogger())
	cmds := []document.Command{
		&document.DefineData{Name: "x", Data: []float64{0, 1, 2}},
		&document.DefineDerived{Name: "y", Data: "x * 2"},
		&document.AddWidget{Parent: "/", Type: document.TypePage, Name: "page1"},
		&document.AddWidget{Parent: "/page1", Type: document.TypeGraph, Name: "graph1"},
	}
	for _, cmd := range cmds {
		if err := d.Apply(cmd); err != nil {
			t.Fatalf("Apply(%s): %v", cmd.CommandName(), err)
		}
	}
	return d
}

func TestReadScript(t *testing.T) {
	script := `# demo
{"op":"AddWidget","args":{"parent":"/","type":"page","name":"page1"}}
{"op":"DefineData","args":{"name":"x","data":[1,2,3]}}
`
	d, err := ReadScript(strings.NewReader(script), newLogger())
	if err != nil {
		t.Fatalf("ReadScript: %v", err)
	}
	if !d.Store().Has("x") {
		t.Errorf("dataset x missing after load")
	}
	if _, err := d.Resolve("/page1"); err != nil {
		t.Errorf("Resolve(/page1): %v", err)
	}
}

func TestReadScriptBadLine(t *testing.T) {
	script := `{"op":"AddWidget","args":{"parent":"/","type":"page","name":"page1"}}
{"op":"Nope","args":{}}
`
	_, err := ReadScript(strings.NewReader(script), newLogger())
	if err == nil {
		t.Fatal("ReadScript accepted an unknown command")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not name the failing line", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	d := buildDoc(t)
	path := filepath.Join(t.TempDir(), "doc.pds")

	if err := ExportScript(d, path); err != nil {
		t.Fatalf("ExportScript: %v", err)
	}
	loaded, err := ImportScript(path, newLogger())
	if err != nil {
		t.Fatalf("ImportScript: %v", err)
	}

	if got, want := loaded.Fingerprint(), d.Fingerprint(); got != want {
		t.Errorf("fingerprint after round trip = %s, want %s", got, want)
	}

	// Exporting the loaded document reproduces the script exactly.
	var first, second strings.Builder
	if err := d.SaveScript(&first); err != nil {
		t.Fatal(err)
	}
	if err := loaded.SaveScript(&second); err != nil {
		t.Fatal(err)
	}
	if first.String() != second.String() {
		t.Errorf("scripts differ after round trip:\n%s\n--\n%s", first.String(), second.String())
	}
}

func TestImportScriptMissing(t *testing.T) {
	_, err := ImportScript(filepath.Join(t.TempDir(), "absent.pds"), newLogger())
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestExportScriptBadPath(t *testing.T) {
	d := document.New(newLogger())
	err := ExportScript(d, filepath.Join(t.TempDir(), "no", "such", "dir.pds"))
	if !errors.Is(err, errors.ErrCodeUnavailable) {
		t.Errorf("error = %v, want UNAVAILABLE", err)
	}
}

func TestImportScriptPropagatesLineErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pds")
	script := `{"op":"DefineData","args":{"name":"x","data":[1]}}
{"op":"DefineDerived","args":{"name":"y","data":"x +"}}
`
	if err := os.WriteFile(path, []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := ImportScript(path, newLogger())
	if !errors.Is(err, errors.ErrCodeParse) {
		t.Errorf("error = %v, want PARSE_ERROR", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not name the failing line", err)
	}
}
