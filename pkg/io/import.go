package io

import (
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/plotdeck/plotdeck/pkg/document"
	"github.com/plotdeck/plotdeck/pkg/errors"
)

// ReadScript replays a script from r into a fresh document.
//
// The document is returned only when every line applies cleanly, so
// callers never see a partially loaded document. Errors carry the
// number of the failing line and the code of the underlying failure,
// for example PARSE_ERROR for a bad formula or INVALID_CHILD_TYPE for
// an illegal widget placement.
//
// The returned document is independent of r and can be mutated freely
// after ReadScript returns. ReadScript does not close r.
func ReadScript(r io.Reader, logger *log.Logger) (*document.Document, error) {
	d := document.New(logger)
	if err := d.LoadScript(r); err != nil {
		return nil, err
	}
	return d, nil
}

// ImportScript reads the script file at path and returns the loaded
// document. It opens the file, replays it with [ReadScript], and
// closes the file. A missing file fails with FILE_NOT_FOUND.
func ImportScript(path string, logger *log.Logger) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "script %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "opening %s", path)
	}
	defer f.Close()

	d, err := ReadScript(f, logger)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "loading %s", path)
	}
	return d, nil
}
