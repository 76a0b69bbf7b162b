package io

import (
	"os"

	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/errors"
)

// ExportScript writes a document's rebuild script to a file at path.
// This is a convenience wrapper around [document.Document.SaveScript]
// for file-based output.
func ExportScript(d *document.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "creating %s", path)
	}
	if err := d.SaveScript(f); err != nil {
		f.Close()
		return errors.Wrap(errors.GetCode(err), err, "saving %s", path)
	}
	return f.Close()
}
