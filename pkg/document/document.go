// Package document implements the plot document: a typed widget tree
// with inherited settings, the dataset store, and the command log
// that keeps both transactionally consistent.
//
// # Structure
//
// A document is a tree rooted at a [TypeDocument] node: pages hold
// graphs, graphs hold axes, plotters and annotations. Every widget
// carries a settings bundle resolved through three layers:
//
//	explicit value on the node -> stylesheet override -> schema default
//
// Widgets are addressed by absolute slash paths ("/page1/graph1/xy1")
// that stay valid across in-memory moves of the process.
//
// # Mutation
//
// All mutation goes through [Document.Apply] with a [Command]. Each
// command validates fully before touching state, captures its inverse
// while applying, and lands in a linear history with a cursor for
// [Document.Undo] and [Document.Redo]. Saving a document serializes
// the commands that rebuild its state, not the history itself.
package document

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/plotdeck/plotdeck/pkg/dataset"
	"github.com/plotdeck/plotdeck/pkg/errors"
	"github.com/plotdeck/plotdeck/pkg/observability"
)

// Document is one plot document: widget tree, dataset store,
// stylesheet and command history.
//
// Documents follow a single-writer model. Methods are not internally
// synchronized except the export gate: [Document.Snapshot] holds a
// read lock while mutating calls fail fast with DOCUMENT_BUSY, so an
// in-flight export never observes a half-applied command.
type Document struct {
	mu sync.RWMutex

	root    *Node
	store   *dataset.Store
	style   *Stylesheet
	history *history

	revision int64
	batch    *batch
	logger   *log.Logger
}

// New creates an empty document. A nil logger falls back to the
// default charmbracelet logger.
func New(logger *log.Logger) *Document {
	if logger == nil {
		logger = log.Default()
	}
	return &Document{
		root:    newNode(TypeDocument, ""),
		store:   dataset.NewStore(logger),
		style:   NewStylesheet(),
		history: &history{},
		logger:  logger,
	}
}

// Root returns the tree root.
func (d *Document) Root() *Node { return d.root }

// Store returns the dataset store. Reads are always fine; mutate
// through commands so history and revision stay consistent.
func (d *Document) Store() *dataset.Store { return d.store }

// Style returns the stylesheet. Mutate through the SetStyle command.
func (d *Document) Style() *Stylesheet { return d.style }

// Revision returns the monotonic change counter. Every applied,
// undone or redone command bumps it.
func (d *Document) Revision() int64 { return d.revision }

// Logger returns the document's logger.
func (d *Document) Logger() *log.Logger { return d.logger }

// Wipe resets the document to the empty state: no widgets, no
// datasets, no stylesheet overrides, no history. Wipe is not a
// command and cannot be undone; loading a script starts with it.
func (d *Document) Wipe() error {
	if !d.mu.TryLock() {
		return errors.New(errors.ErrCodeDocumentBusy, "document is busy with an export")
	}
	defer d.mu.Unlock()
	d.wipe()
	return nil
}

func (d *Document) wipe() {
	d.root = newNode(TypeDocument, "")
	d.store = dataset.NewStore(d.logger)
	d.style = NewStylesheet()
	d.history = &history{}
	d.batch = nil
	d.revision++
}

// ===== Path resolution =====

// Resolve walks an absolute path to its node. Unknown paths fail with
// a NOT_FOUND error naming the longest prefix that resolved.
func (d *Document) Resolve(path string) (*Node, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	cur := d.root
	for i, seg := range segs {
		next := cur.Child(seg)
		if next == nil {
			prefix := "/"
			if i > 0 {
				prefix = "/" + joinSegments(segs[:i])
			}
			return nil, errors.New(errors.ErrCodeNotFound,
				"widget %q not found (resolved up to %q)", path, prefix)
		}
		cur = next
	}
	return cur, nil
}

func joinSegments(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}

// NodeCount returns the number of widgets in the tree including the
// root.
func (d *Document) NodeCount() int {
	n := 0
	var walk func(*Node)
	walk = func(node *Node) {
		n++
		for _, c := range node.children {
			walk(c)
		}
	}
	walk(d.root)
	return n
}

// Pages returns the page nodes in document order.
func (d *Document) Pages() []*Node {
	var out []*Node
	for _, c := range d.root.children {
		if c.typ == TypePage {
			out = append(out, c)
		}
	}
	return out
}

// Page returns the page with the given name.
func (d *Document) Page(name string) (*Node, error) {
	for _, c := range d.root.children {
		if c.typ == TypePage && c.name == name {
			return c, nil
		}
	}
	return nil, errors.New(errors.ErrCodeNotFound, "page %q not found", name)
}

// ===== Settings resolution =====

// Setting resolves one setting for the widget at path: explicit value
// first, then the stylesheet, then the schema default.
func (d *Document) Setting(path, key string) (any, error) {
	n, err := d.Resolve(path)
	if err != nil {
		return nil, err
	}
	def, err := lookupDef(n.typ, key)
	if err != nil {
		return nil, err
	}
	return d.resolveSetting(n, def), nil
}

func (d *Document) resolveSetting(n *Node, def SettingDef) any {
	if v, ok := n.settings[def.Key]; ok {
		return v
	}
	if v, ok := d.style.Get(n.typ, def.Key); ok {
		return v
	}
	return def.Default
}

// ResolvedSettings returns the full effective settings of a node,
// one entry per schema key.
func (d *Document) ResolvedSettings(n *Node) Settings {
	schema := widgetSchemas[n.typ]
	if schema == nil {
		return Settings{}
	}
	out := make(Settings, len(schema.order))
	for _, key := range schema.order {
		out[key] = d.resolveSetting(n, schema.defs[key])
	}
	return out
}

// ===== Tree mutation (command implementations call these) =====

// addWidget validates and attaches a new widget, returning its path.
// An empty name picks the lowest free type+integer name.
func (d *Document) addWidget(parentPath string, typ Type, name string, at int) (string, error) {
	parent, err := d.Resolve(parentPath)
	if err != nil {
		return "", err
	}
	if !ValidType(typ) || typ == TypeDocument {
		return "", errors.New(errors.ErrCodeInvalidChildType, "unknown widget type %q", typ)
	}
	if !CanContain(parent.typ, typ) {
		return "", errors.New(errors.ErrCodeInvalidChildType,
			"a %s cannot contain a %s", parent.typ, typ)
	}
	if name == "" {
		name = parent.autoName(typ)
	} else {
		if err := errors.ValidateWidgetName(name); err != nil {
			return "", err
		}
		if parent.Child(name) != nil {
			return "", errors.New(errors.ErrCodeDuplicateName,
				"widget %q already exists under %s", name, parentPath)
		}
	}
	child := newNode(typ, name)
	parent.attach(child, at)
	return child.Path(), nil
}

// removeWidget detaches a subtree, returning it with its former
// parent path and index so an inverse can restore it.
func (d *Document) removeWidget(path string) (*Node, string, int, error) {
	n, err := d.Resolve(path)
	if err != nil {
		return nil, "", 0, err
	}
	if n.parent == nil {
		return nil, "", 0, errors.New(errors.ErrCodeInvalidReference, "the document root cannot be removed")
	}
	parentPath := n.parent.Path()
	idx := n.parent.detach(n)
	return n, parentPath, idx, nil
}

// restoreWidget reattaches a previously removed subtree.
func (d *Document) restoreWidget(parentPath string, n *Node, at int) error {
	parent, err := d.Resolve(parentPath)
	if err != nil {
		return err
	}
	if !CanContain(parent.typ, n.typ) {
		return errors.New(errors.ErrCodeInvalidChildType,
			"a %s cannot contain a %s", parent.typ, n.typ)
	}
	if parent.Child(n.name) != nil {
		return errors.New(errors.ErrCodeDuplicateName,
			"widget %q already exists under %s", n.name, parentPath)
	}
	parent.attach(n, at)
	return nil
}

// moveWidget re-parents a subtree, returning the moved node with its
// old parent path and index. Moving a node under itself or its own
// descendant fails.
func (d *Document) moveWidget(path, newParentPath string, at int) (*Node, string, int, error) {
	n, err := d.Resolve(path)
	if err != nil {
		return nil, "", 0, err
	}
	if n.parent == nil {
		return nil, "", 0, errors.New(errors.ErrCodeInvalidReference, "the document root cannot be moved")
	}
	target, err := d.Resolve(newParentPath)
	if err != nil {
		return nil, "", 0, err
	}
	if target == n || target.IsDescendantOf(n) {
		return nil, "", 0, errors.New(errors.ErrCodeInvalidReference,
			"cannot move %s under its own subtree", path)
	}
	if !CanContain(target.typ, n.typ) {
		return nil, "", 0, errors.New(errors.ErrCodeInvalidChildType,
			"a %s cannot contain a %s", target.typ, n.typ)
	}
	if target != n.parent && target.Child(n.name) != nil {
		return nil, "", 0, errors.New(errors.ErrCodeDuplicateName,
			"widget %q already exists under %s", n.name, newParentPath)
	}

	oldParent := n.parent
	oldParentPath := oldParent.Path()
	oldIdx := oldParent.detach(n)
	target.attach(n, at)
	return n, oldParentPath, oldIdx, nil
}

// renameWidget changes a widget's name, enforcing sibling uniqueness.
// It returns the renamed node and its former name.
func (d *Document) renameWidget(path, newName string) (*Node, string, error) {
	n, err := d.Resolve(path)
	if err != nil {
		return nil, "", err
	}
	if n.parent == nil {
		return nil, "", errors.New(errors.ErrCodeInvalidReference, "the document root cannot be renamed")
	}
	if err := errors.ValidateWidgetName(newName); err != nil {
		return nil, "", err
	}
	oldName := n.name
	if newName == oldName {
		return n, oldName, nil
	}
	if n.parent.Child(newName) != nil {
		return nil, "", errors.New(errors.ErrCodeDuplicateName,
			"widget %q already exists under %s", newName, n.parent.Path())
	}
	n.name = newName
	return n, oldName, nil
}

// setSetting stores an explicit setting value, returning the previous
// explicit value if any.
func (d *Document) setSetting(path, key string, value any) (any, bool, error) {
	n, err := d.Resolve(path)
	if err != nil {
		return nil, false, err
	}
	def, err := lookupDef(n.typ, key)
	if err != nil {
		return nil, false, err
	}
	v, err := normalizeValue(def, value)
	if err != nil {
		return nil, false, err
	}
	prev, had := n.settings[key]
	n.settings[key] = v
	return prev, had, nil
}

// unsetSetting removes an explicit setting value so inheritance takes
// over again. Unsetting a non-explicit key is a no-op.
func (d *Document) unsetSetting(path, key string) (any, bool, error) {
	n, err := d.Resolve(path)
	if err != nil {
		return nil, false, err
	}
	if _, err := lookupDef(n.typ, key); err != nil {
		return nil, false, err
	}
	prev, had := n.settings[key]
	delete(n.settings, key)
	return prev, had, nil
}

// ===== Command application =====

// Apply validates and executes a command, records it (with its
// inverse) in the history, and bumps the revision. The redo tail past
// the current position is discarded.
//
// Apply fails with DOCUMENT_BUSY while an export snapshot holds the
// document.
func (d *Document) Apply(cmd Command) error {
	if !d.mu.TryLock() {
		return errors.New(errors.ErrCodeDocumentBusy, "document is busy with an export")
	}
	defer d.mu.Unlock()
	return d.apply(cmd, true)
}

// apply runs a command, optionally recording it. Load replays scripts
// without recording so a fresh document starts with empty history.
func (d *Document) apply(cmd Command, record bool) error {
	if err := cmd.Do(d); err != nil {
		return err
	}
	if record {
		rec := historyRecord{fwd: cmd, inv: cmd.Invert()}
		if d.batch != nil {
			d.batch.records = append(d.batch.records, rec)
		} else {
			d.history.push(rec)
		}
	}
	d.revision++
	observability.Document().OnCommand(cmd.CommandName(), d.revision)
	return nil
}

// Undo steps the history cursor back one command and applies its
// inverse. At the start of the history it fails with NOTHING_TO_UNDO.
func (d *Document) Undo() error {
	if !d.mu.TryLock() {
		return errors.New(errors.ErrCodeDocumentBusy, "document is busy with an export")
	}
	defer d.mu.Unlock()
	if d.batch != nil {
		return errors.New(errors.ErrCodeInvalidInput, "cannot undo inside an open batch")
	}

	rec, err := d.history.stepBack()
	if err != nil {
		return err
	}
	if err := rec.inv.Do(d); err != nil {
		d.history.stepForward()
		return errors.Wrap(errors.ErrCodeInternal, err, "undoing %s", rec.fwd.CommandName())
	}
	d.revision++
	observability.Document().OnUndo(rec.fwd.CommandName(), d.revision)
	return nil
}

// Redo re-applies the command at the history cursor. At the end of
// the history it fails with NOTHING_TO_REDO.
func (d *Document) Redo() error {
	if !d.mu.TryLock() {
		return errors.New(errors.ErrCodeDocumentBusy, "document is busy with an export")
	}
	defer d.mu.Unlock()
	if d.batch != nil {
		return errors.New(errors.ErrCodeInvalidInput, "cannot redo inside an open batch")
	}

	rec, err := d.history.stepForward()
	if err != nil {
		return err
	}
	if err := rec.fwd.Do(d); err != nil {
		d.history.stepBack()
		return errors.Wrap(errors.ErrCodeInternal, err, "redoing %s", rec.fwd.CommandName())
	}
	// Re-running the command recaptured state, so refresh the stored
	// inverse.
	d.history.replaceCurrentInverse(rec.fwd.Invert())
	d.revision++
	observability.Document().OnRedo(rec.fwd.CommandName(), d.revision)
	return nil
}

// CanUndo reports whether Undo would succeed, with the name of the
// command it would revert.
func (d *Document) CanUndo() (string, bool) { return d.history.undoName() }

// CanRedo reports whether Redo would succeed, with the name of the
// command it would re-apply.
func (d *Document) CanRedo() (string, bool) { return d.history.redoName() }

// HistoryLen returns the number of recorded commands.
func (d *Document) HistoryLen() int { return len(d.history.records) }

// HistoryPosition returns the cursor position in [0, HistoryLen].
func (d *Document) HistoryPosition() int { return d.history.pos }

// ===== Batching =====

// batch collects records between Batch and EndBatch.
type batch struct {
	label   string
	records []historyRecord
}

// Batch starts grouping subsequent applies into a single composite
// history entry, so one user gesture undoes atomically. Batches do
// not nest.
func (d *Document) Batch(label string) error {
	if d.batch != nil {
		return errors.New(errors.ErrCodeInvalidInput, "a batch is already open")
	}
	d.batch = &batch{label: label}
	return nil
}

// EndBatch closes the open batch and records it as one history entry.
// An empty batch records nothing.
func (d *Document) EndBatch() error {
	if d.batch == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no batch is open")
	}
	b := d.batch
	d.batch = nil
	if len(b.records) == 0 {
		return nil
	}

	fwd := make([]Command, len(b.records))
	inv := make([]Command, len(b.records))
	for i, rec := range b.records {
		fwd[i] = rec.fwd
		inv[len(b.records)-1-i] = rec.inv
	}
	d.history.push(historyRecord{
		fwd: &Composite{Label: b.label, Ops: fwd},
		inv: &Composite{Label: b.label, Ops: inv},
	})
	return nil
}

// InBatch reports whether a batch is open.
func (d *Document) InBatch() bool { return d.batch != nil }

// ===== Export gate =====

// Snapshot runs fn while holding the document's read lock. Mutating
// commands fail with DOCUMENT_BUSY until fn returns, which is what
// keeps an in-flight export consistent. fn must not mutate the
// document.
func (d *Document) Snapshot(fn func() error) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn()
}

// ===== Fingerprinting =====

// Fingerprint returns a stable hash of the document's observable
// state: tree structure, explicit settings, stylesheet and datasets.
// Equal states share a fingerprint regardless of how they were
// reached, which makes it the cache key for layouts and rendered
// artifacts.
func (d *Document) Fingerprint() string {
	h := sha256.New()

	var walk func(*Node)
	walk = func(n *Node) {
		fmt.Fprintf(h, "w %s %s\n", n.typ, n.Path())
		for _, key := range n.ExplicitKeys() {
			fmt.Fprintf(h, "s %s=%s\n", key, formatValue(n.settings[key]))
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(d.root)

	for _, t := range d.style.Types() {
		for _, key := range d.style.Keys(t) {
			v, _ := d.style.Get(t, key)
			fmt.Fprintf(h, "y %s.%s=%s\n", t, key, formatValue(v))
		}
	}

	io.WriteString(h, d.store.Fingerprint())
	return hex.EncodeToString(h.Sum(nil))
}
