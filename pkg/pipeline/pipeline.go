// Package pipeline runs the export pipeline for plot documents.
//
// This package implements the settle → layout → render sequence that
// turns a document into page artifacts, with caching at the layout
// and artifact level. CLI and API both export through it, which keeps
// caching and instrumentation in one place.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Settle: recompute every dirty derived dataset
//  2. Layout: solve the widget tree into device geometry
//  3. Render: walk the placed widgets onto one canvas per page and
//     format, then encode the results to bytes
//
// The first two stages and the canvas walk run inside a document
// snapshot, so mutating commands fail with DOCUMENT_BUSY until the
// recording is done. Encoding to bytes happens after the snapshot is
// released.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, nil, logger)
//	opts := pipeline.Options{
//	    Formats: []string{"svg", "png"},
//	}
//	result, err := runner.Execute(ctx, doc, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg, _ := result.Artifact("page1", "svg")
//
// Run from a script file instead of a live document:
//
//	result, err := runner.ExecuteScript(ctx, "plot.pds", opts)
package pipeline

import (
	"time"

	"github.com/plotdeck/plotdeck/pkg/cache"
	"github.com/plotdeck/plotdeck/pkg/errors"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultScale is the default raster resolution in pixels per point.
const DefaultScale = 1.0

// Format constants for output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
	FormatPDF = "pdf"
	FormatEPS = "eps"
)

// FormatDOT is the Graphviz source format for dependency diagrams.
const FormatDOT = "dot"

// ValidFormats is the set of supported page output formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
	FormatEPS: true,
}

// ValidDepsFormats is the set of supported dependency diagram
// formats.
var ValidDepsFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatPDF: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run. The struct
// supports JSON serialization for API requests.
type Options struct {
	// Page selects one page by name; empty renders every visible
	// page. A named page renders even when hidden, which produces a
	// blank canvas at the page size.
	Page string `json:"page,omitempty"`

	// Formats lists the outputs to produce per page. Defaults to svg
	// alone.
	Formats []string `json:"formats,omitempty"`

	// Scale is the raster resolution in pixels per point. Vector
	// formats ignore it.
	Scale float64 `json:"scale,omitempty"`

	// Refresh skips cache reads so every stage recomputes.
	Refresh bool `json:"refresh,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Pages lists the page names rendered, in document order.
	Pages []string

	// Fingerprint is the content hash of the document state the
	// artifacts were rendered from.
	Fingerprint string

	// Artifacts contains rendered bytes keyed by output file name,
	// "page1.svg". Use Artifact for keyed access.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Artifact returns the rendered bytes for one page and format.
func (r *Result) Artifact(page, format string) ([]byte, bool) {
	data, ok := r.Artifacts[artifactName(page, format)]
	return data, ok
}

// artifactName keys Result.Artifacts the way exported files are
// named.
func artifactName(page, format string) string {
	return page + "." + format
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Recomputed int // dirty datasets recomputed during settle
	Widgets    int // widgets placed by the layout

	SettleTime time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // solved layout came from cache
	RenderHit bool // every requested artifact came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a page output format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: svg, png, pdf, eps)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDepsFormat checks that a dependency diagram format is
// valid.
func ValidateDepsFormat(format string) error {
	if !ValidDepsFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid deps format: %q (must be one of: dot, svg, png, pdf)", format)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same
// effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			"scale must be positive, got %g", o.Scale)
	}
	o.validated = true
	return nil
}

// LayoutKeyOpts returns cache key options for the solved layout. The
// solve covers the whole document, so the requested page does not
// contribute.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{}
}

// ArtifactKeyOpts returns cache key options for one rendered page.
func (o *Options) ArtifactKeyOpts(page, format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Page:   page,
		Format: format,
		Scale:  o.rasterScale(format),
	}
}

// rasterScale returns the scale contributing to a format's bytes.
// Vector formats render identically at every scale and share one
// cache entry.
func (o *Options) rasterScale(format string) float64 {
	if format == FormatPNG {
		return o.Scale
	}
	return 0
}
