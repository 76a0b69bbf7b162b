// Package io reads and writes document script files.
//
// # Overview
//
// A script file is the on-disk form of a plot document: one JSON
// command envelope per line, in the order that rebuilds the document
// from empty. The format is designed for:
//
//   - Plain-text documents that diff and merge like source code
//   - Hand editing: blank lines and # comments are ignored
//   - Replay tooling that appends commands to an existing script
//   - Round-trip preservation: load, edit, save, and reload identically
//
// # Script Format
//
// Each non-comment line is one command envelope:
//
//	{"op":"DefineData","args":{"name":"x","data":[1,2,3]}}
//	{"op":"DefineDerived","args":{"name":"y","data":"x * 2"}}
//	{"op":"AddWidget","args":{"parent":"/","type":"page","name":"page1"}}
//	{"op":"SetSetting","args":{"path":"/page1/graph1","key":"leftMargin","value":50}}
//
// The op names and argument shapes are defined by the exported
// commands in [github.com/plotdeck/plotdeck/pkg/document].
//
// # Import
//
// Use [ImportScript] to load a document from a file path, or
// [ReadScript] to load from any io.Reader:
//
//	doc, err := io.ImportScript("plot.pds", logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Both build the document in a fresh instance and return it only when
// every line replays cleanly, so a broken script never leaves a half
// loaded document behind. Errors name the failing line.
//
// # Export
//
// Use [ExportScript] to write a document to a file, or
// [document.Document.SaveScript] to write to any io.Writer:
//
//	err := io.ExportScript(doc, "plot.pds")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The export writes the canonical rebuild sequence: datasets in
// dependency order with their tags, stylesheet overrides, then the
// widget tree with explicit settings. Undo history is session state
// and is not saved.
package io
