// Package pkg provides the core libraries for Plotdeck plotting documents.
//
// # Overview
//
// Plotdeck turns a tree of plot widgets plus a store of named datasets
// into publication-quality figures. Documents are built and edited
// through an invertible command log, so every mutation can be undone,
// replayed, and persisted as a script. The pkg directory is organized
// into four main areas:
//
//  1. Model - the document itself ([document], [dataset], [expr])
//  2. Geometry - axis ranges, ticks and placement ([layout], [geom])
//  3. Painting - canvas backends and painters ([canvas], [render], [widget])
//  4. Orchestration - caching, scripts and the export runner ([pipeline], [io], [importer], [cache])
//
// # Architecture
//
// The typical data flow through Plotdeck:
//
//	Command Script/HTTP API
//	         ↓
//	    [document] package (widget tree + settings + history)
//	         ↓
//	    [dataset] + [expr] packages (settle derived data)
//	         ↓
//	    [layout] package (ranges → ticks → measure → place)
//	         ↓
//	    [render] + [widget] + [canvas] packages (paint)
//	         ↓
//	    SVG/PDF/EPS/PNG output
//
// # Quick Start
//
// Build a document through commands and render it:
//
//	import (
//	    "context"
//	    "os"
//
//	    "github.com/plotdeck/plotdeck/pkg/document"
//	    "github.com/plotdeck/plotdeck/pkg/pipeline"
//	)
//
//	// 1. Build the widget tree
//	d := document.New(nil)
//	_ = d.Apply(&document.AddWidget{Parent: "/", Type: document.TypePage, Name: "page1"})
//	_ = d.Apply(&document.AddWidget{Parent: "/page1", Type: document.TypeGraph, Name: "graph1"})
//	_ = d.Apply(&document.AddWidget{Parent: "/page1/graph1", Type: document.TypeAxis, Name: "x"})
//	_ = d.Apply(&document.AddWidget{Parent: "/page1/graph1", Type: document.TypeAxis, Name: "y"})
//	_ = d.Apply(&document.SetSetting{Path: "/page1/graph1/y", Key: "direction", Value: "vertical"})
//
//	// 2. Attach data and a plotter
//	_ = d.Apply(&document.DefineData{Name: "x", Data: []float64{0, 1, 2, 3}})
//	_ = d.Apply(&document.DefineDerived{Name: "y", Data: "x ^ 2"})
//	_ = d.Apply(&document.AddWidget{Parent: "/page1/graph1", Type: document.TypeXY, Name: "xy1"})
//
//	// 3. Render every page
//	runner := pipeline.NewRunner(nil, nil, nil, nil)
//	res, _ := runner.Execute(context.Background(), d, pipeline.Options{})
//	svg, _ := res.Artifact("page1", pipeline.FormatSVG)
//	_ = os.WriteFile("page1.svg", svg, 0o644)
//
// # Main Packages
//
// ## Model
//
// [document] - The widget tree with typed children (pages, graphs, axes,
// plotters, annotations), schema-driven settings with stylesheet
// inheritance, and the command log. Every edit is a [document.Command]
// that records its inverse when applied, giving linear undo/redo and a
// JSONL script form that reproduces the document exactly.
//
// [dataset] - Named numeric and text datasets with optional symmetric,
// positive and negative error columns. Derived datasets are formulas
// over other datasets; the store tracks the dependency graph, recomputes
// lazily in topological order, and degrades broken formulas to empty
// data instead of failing the document.
//
// [expr] - The formula language: elementwise array arithmetic over
// dataset parts (x, x_serr, backquoted names), scalar broadcasting,
// comparison and power operators, and a function library (sin, log,
// mean, cumsum, ...). Hand-written lexer, Pratt parser and evaluator.
//
// ## Geometry
//
// [layout] - The two-pass solve: resolve axis ranges from data extents
// (including error bars), pick 1-2-5 or log-decade ticks, measure label
// bands with real font metrics, then place pages, graphs, axes and
// plotters into device rectangles. Pure geometry; nothing here draws.
//
// [geom] - Points, rects and intervals in device coordinates
// (points, y down).
//
// ## Painting
//
// [canvas] - The abstract drawing surface: paint state, paths,
// polylines, aligned and rotated text, a clip stack, and per-widget
// brackets. Includes a recorder backend for paint-order tests and text
// metrics from the embedded Go font.
//
// [canvas/svgcanvas] - Hand-written SVG 1.1 emission.
//
// [canvas/pngcanvas] - Supersampled raster backend over fogleman/gg.
//
// [widget] - One painter per widget type: axis lines, ticks and labels,
// xy markers with error bars, sampled function curves, histogram bars,
// anchored labels and rects. [widget.Painters] is the registry the
// render walk dispatches through.
//
// [render] - The depth-first paint walk (parents before children,
// plotters clipped to the plot area), marker and dash helpers, and
// SVG-to-PDF/EPS/PNG conversion via rsvg-convert.
//
// [render/depviz] - Dataset dependency diagrams as DOT or laid-out SVG
// via Graphviz.
//
// ## Orchestration
//
// [pipeline] - The export runner used by CLI and API alike: settle →
// layout → render with layout- and artifact-level caching, stage
// timings and cache-hit reporting.
//
// [io] - Script files: import a JSONL command script into a fresh
// document, export a document back to one.
//
// [importer] - Delimited text (CSV/TSV) to datasets. Header cells
// "+-", "+" and "-" attach error columns to the dataset named before
// them; headerless numeric files are detected and named col1..colN.
//
// ## Infrastructure
//
// [cache] - Cache interface with memory, file, Redis and null backends,
// plus fingerprint-based key derivation for layouts, artifacts and
// dependency diagrams.
//
// [errors] - Coded errors shared across CLI, API and library callers:
// stable machine-readable codes, wrapped causes, and input validators.
//
// [observability] - Hook interfaces around commands, recomputes, layout
// and render stages, with no-op defaults.
//
// [buildinfo] - Version metadata injected at build time.
//
// # Common Workflows
//
// Replay a saved script:
//
//	d, _ := pkgio.ImportScript("figure.pds", nil)
//	_, _ = d.Store().Settle(context.Background())
//
// Import a CSV file as datasets:
//
//	res, _ := importer.ImportFile("samples.csv", importer.Options{})
//	_ = d.Apply(res.Command("import samples.csv"))
//
// Cache renders across runs:
//
//	c, _ := cache.NewFileCache(dir)
//	runner := pipeline.NewRunner(c, nil, nil, logger)
//	defer runner.Close()
//
// Diagram dataset dependencies:
//
//	dot, _ := runner.Deps(ctx, d.Store(), pipeline.FormatDOT)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/layout/...             # Specific package
//	go test -run Example                 # Examples only
//	go test -tags integration ./...      # Include integration tests
//
// [document]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/document
// [dataset]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/dataset
// [expr]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/expr
// [layout]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/layout
// [geom]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/geom
// [canvas]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/canvas
// [canvas/svgcanvas]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/canvas/svgcanvas
// [canvas/pngcanvas]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/canvas/pngcanvas
// [widget]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/widget
// [render]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/render
// [render/depviz]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/render/depviz
// [pipeline]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/io
// [importer]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/importer
// [cache]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/cache
// [errors]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/errors
// [observability]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/plotdeck/plotdeck/pkg/buildinfo
package pkg
