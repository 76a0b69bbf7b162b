package document

import (
	"slices"

	"github.com/plotdeck/plotdeck/pkg/dataset"
	"github.com/plotdeck/plotdeck/pkg/errors"
)

// Command is one undoable document mutation. Do validates its
// arguments fully before touching the document, so a failed command
// leaves no partial state, and captures whatever prior state its
// inverse needs. Invert is only meaningful after a successful Do.
//
// Exported commands serialize to the script format by their
// CommandName and public fields; the unexported restore commands
// exist only as inverses inside the history.
type Command interface {
	CommandName() string
	Do(d *Document) error
	Invert() Command
}

// ===== Widget tree commands =====

// AddWidget creates a widget under a parent. An empty Name picks the
// lowest free "type+number" name. A nil At appends; otherwise the
// child is inserted at that index among its siblings.
type AddWidget struct {
	Parent string `json:"parent"`
	Type   Type   `json:"type"`
	Name   string `json:"name,omitempty"`
	At     *int   `json:"at,omitempty"`

	createdPath string
}

func (c *AddWidget) CommandName() string { return "AddWidget" }

func (c *AddWidget) Do(d *Document) error {
	at := -1
	if c.At != nil {
		at = *c.At
	}
	path, err := d.addWidget(c.Parent, c.Type, c.Name, at)
	if err != nil {
		return err
	}
	c.createdPath = path
	return nil
}

func (c *AddWidget) Invert() Command { return &RemoveWidget{Path: c.createdPath} }

// CreatedPath returns the path of the widget the command created.
func (c *AddWidget) CreatedPath() string { return c.createdPath }

// RemoveWidget deletes the widget at Path together with its subtree.
type RemoveWidget struct {
	Path string `json:"path"`

	removed    *Node
	parentPath string
	index      int
}

func (c *RemoveWidget) CommandName() string { return "RemoveWidget" }

func (c *RemoveWidget) Do(d *Document) error {
	n, parentPath, idx, err := d.removeWidget(c.Path)
	if err != nil {
		return err
	}
	c.removed, c.parentPath, c.index = n, parentPath, idx
	return nil
}

func (c *RemoveWidget) Invert() Command {
	return &restoreWidget{parentPath: c.parentPath, node: c.removed, at: c.index}
}

// restoreWidget reattaches a removed subtree at its former position.
type restoreWidget struct {
	parentPath string
	node       *Node
	at         int
}

func (c *restoreWidget) CommandName() string { return "RestoreWidget" }

func (c *restoreWidget) Do(d *Document) error {
	return d.restoreWidget(c.parentPath, c.node, c.at)
}

func (c *restoreWidget) Invert() Command {
	return &RemoveWidget{Path: c.node.Path()}
}

// MoveWidget re-parents the widget at Path. A nil At appends under
// the new parent.
type MoveWidget struct {
	Path      string `json:"path"`
	NewParent string `json:"new_parent"`
	At        *int   `json:"at,omitempty"`

	movedPath string
	oldParent string
	oldIndex  int
}

func (c *MoveWidget) CommandName() string { return "MoveWidget" }

func (c *MoveWidget) Do(d *Document) error {
	at := -1
	if c.At != nil {
		at = *c.At
	}
	n, oldParent, oldIdx, err := d.moveWidget(c.Path, c.NewParent, at)
	if err != nil {
		return err
	}
	c.movedPath, c.oldParent, c.oldIndex = n.Path(), oldParent, oldIdx
	return nil
}

func (c *MoveWidget) Invert() Command {
	at := c.oldIndex
	return &MoveWidget{Path: c.movedPath, NewParent: c.oldParent, At: &at}
}

// RenameWidget changes a widget's name in place.
type RenameWidget struct {
	Path    string `json:"path"`
	NewName string `json:"new_name"`

	newPath string
	oldName string
}

func (c *RenameWidget) CommandName() string { return "RenameWidget" }

func (c *RenameWidget) Do(d *Document) error {
	n, oldName, err := d.renameWidget(c.Path, c.NewName)
	if err != nil {
		return err
	}
	c.newPath, c.oldName = n.Path(), oldName
	return nil
}

func (c *RenameWidget) Invert() Command {
	return &RenameWidget{Path: c.newPath, NewName: c.oldName}
}

// ===== Setting commands =====

// SetSetting stores an explicit setting value on the widget at Path.
type SetSetting struct {
	Path  string `json:"path"`
	Key   string `json:"key"`
	Value any    `json:"value"`

	prev    any
	hadPrev bool
}

func (c *SetSetting) CommandName() string { return "SetSetting" }

func (c *SetSetting) Do(d *Document) error {
	prev, had, err := d.setSetting(c.Path, c.Key, c.Value)
	if err != nil {
		return err
	}
	c.prev, c.hadPrev = prev, had
	return nil
}

func (c *SetSetting) Invert() Command {
	if c.hadPrev {
		return &SetSetting{Path: c.Path, Key: c.Key, Value: c.prev}
	}
	return &UnsetSetting{Path: c.Path, Key: c.Key}
}

// UnsetSetting removes an explicit setting so the stylesheet or
// default shows through again. Unsetting a key with no explicit value
// is a no-op.
type UnsetSetting struct {
	Path string `json:"path"`
	Key  string `json:"key"`

	prev    any
	hadPrev bool
}

func (c *UnsetSetting) CommandName() string { return "UnsetSetting" }

func (c *UnsetSetting) Do(d *Document) error {
	prev, had, err := d.unsetSetting(c.Path, c.Key)
	if err != nil {
		return err
	}
	c.prev, c.hadPrev = prev, had
	return nil
}

func (c *UnsetSetting) Invert() Command {
	if c.hadPrev {
		return &SetSetting{Path: c.Path, Key: c.Key, Value: c.prev}
	}
	return &UnsetSetting{Path: c.Path, Key: c.Key}
}

// SetStyle writes a stylesheet override for every widget of a type. A
// nil Value clears the override.
type SetStyle struct {
	Type  Type   `json:"type"`
	Key   string `json:"key"`
	Value any    `json:"value,omitempty"`

	prev    any
	hadPrev bool
}

func (c *SetStyle) CommandName() string { return "SetStyle" }

func (c *SetStyle) Do(d *Document) error {
	if !ValidType(c.Type) {
		return errors.New(errors.ErrCodeInvalidSetting, "unknown widget type %q", c.Type)
	}
	if _, err := lookupDef(c.Type, c.Key); err != nil {
		return err
	}
	prev, had := d.style.Get(c.Type, c.Key)
	if c.Value == nil {
		d.style.Unset(c.Type, c.Key)
	} else if err := d.style.Set(c.Type, c.Key, c.Value); err != nil {
		return err
	}
	c.prev, c.hadPrev = prev, had
	return nil
}

func (c *SetStyle) Invert() Command {
	if c.hadPrev {
		return &SetStyle{Type: c.Type, Key: c.Key, Value: c.prev}
	}
	return &SetStyle{Type: c.Type, Key: c.Key}
}

// ===== Dataset commands =====

// DefineData creates a raw numeric dataset with optional error
// columns.
type DefineData struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
	Serr []float64 `json:"serr,omitempty"`
	Perr []float64 `json:"perr,omitempty"`
	Nerr []float64 `json:"nerr,omitempty"`
}

func (c *DefineData) CommandName() string { return "DefineData" }

func (c *DefineData) Do(d *Document) error {
	return d.store.DefineRaw(c.Name, dataset.Columns{
		Data: c.Data, Serr: c.Serr, Perr: c.Perr, Nerr: c.Nerr,
	})
}

func (c *DefineData) Invert() Command { return &DeleteData{Name: c.Name} }

// DefineTextData creates a text dataset.
type DefineTextData struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

func (c *DefineTextData) CommandName() string { return "DefineTextData" }

func (c *DefineTextData) Do(d *Document) error {
	return d.store.DefineText(c.Name, c.Values)
}

func (c *DefineTextData) Invert() Command { return &DeleteData{Name: c.Name} }

// DefineDerived creates a dataset computed from formulas over other
// datasets. Data is required; the error part formulas are optional.
type DefineDerived struct {
	Name string `json:"name"`
	Data string `json:"data"`
	Serr string `json:"serr,omitempty"`
	Perr string `json:"perr,omitempty"`
	Nerr string `json:"nerr,omitempty"`
}

func (c *DefineDerived) CommandName() string { return "DefineDerived" }

func (c *DefineDerived) Do(d *Document) error {
	return d.store.DefineDerived(c.Name, dataset.Definition{
		Data: c.Data, Serr: c.Serr, Perr: c.Perr, Nerr: c.Nerr,
	})
}

func (c *DefineDerived) Invert() Command { return &DeleteData{Name: c.Name} }

// RedefineData swaps the formulas of an existing derived dataset.
type RedefineData struct {
	Name string `json:"name"`
	Data string `json:"data"`
	Serr string `json:"serr,omitempty"`
	Perr string `json:"perr,omitempty"`
	Nerr string `json:"nerr,omitempty"`

	prev *RedefineData
}

func (c *RedefineData) CommandName() string { return "RedefineData" }

func (c *RedefineData) Do(d *Document) error {
	info, err := d.store.Info(c.Name)
	if err != nil {
		return err
	}
	var prev *RedefineData
	if info.Def != nil {
		prev = &RedefineData{
			Name: c.Name,
			Data: info.Def.Data, Serr: info.Def.Serr,
			Perr: info.Def.Perr, Nerr: info.Def.Nerr,
		}
	}
	if err := d.store.Redefine(c.Name, dataset.Definition{
		Data: c.Data, Serr: c.Serr, Perr: c.Perr, Nerr: c.Nerr,
	}); err != nil {
		return err
	}
	c.prev = prev
	return nil
}

func (c *RedefineData) Invert() Command { return c.prev }

// SetValues replaces the columns of a raw numeric dataset.
type SetValues struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
	Serr []float64 `json:"serr,omitempty"`
	Perr []float64 `json:"perr,omitempty"`
	Nerr []float64 `json:"nerr,omitempty"`

	prev dataset.Columns
}

func (c *SetValues) CommandName() string { return "SetValues" }

func (c *SetValues) Do(d *Document) error {
	prev, err := d.store.Columns(c.Name)
	if err != nil {
		return err
	}
	if err := d.store.SetValues(c.Name, dataset.Columns{
		Data: c.Data, Serr: c.Serr, Perr: c.Perr, Nerr: c.Nerr,
	}); err != nil {
		return err
	}
	c.prev = prev
	return nil
}

func (c *SetValues) Invert() Command {
	return &SetValues{
		Name: c.Name,
		Data: c.prev.Data, Serr: c.prev.Serr,
		Perr: c.prev.Perr, Nerr: c.prev.Nerr,
	}
}

// SetTextValues replaces the strings of a text dataset.
type SetTextValues struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`

	prev []string
}

func (c *SetTextValues) CommandName() string { return "SetTextValues" }

func (c *SetTextValues) Do(d *Document) error {
	prev, err := d.store.Text(c.Name)
	if err != nil {
		return err
	}
	if err := d.store.SetText(c.Name, c.Values); err != nil {
		return err
	}
	c.prev = prev
	return nil
}

func (c *SetTextValues) Invert() Command {
	return &SetTextValues{Name: c.Name, Values: c.prev}
}

// DeleteData removes a dataset. Without Cascade the command fails
// with IN_USE while other formulas still read the dataset; with
// Cascade the whole dependent closure goes.
type DeleteData struct {
	Name    string `json:"name"`
	Cascade bool   `json:"cascade,omitempty"`

	snapshots []dataSnapshot
}

func (c *DeleteData) CommandName() string { return "DeleteData" }

func (c *DeleteData) Do(d *Document) error {
	set := []string{c.Name}
	if c.Cascade {
		set = append(set, d.store.TransitiveDependents(c.Name)...)
	}
	byName := make(map[string]dataSnapshot, len(set))
	for _, name := range set {
		snap, err := snapshotData(d.store, name)
		if err != nil {
			return err
		}
		byName[name] = snap
	}

	removed, err := d.store.Delete(c.Name, c.Cascade)
	if err != nil {
		return err
	}

	// Delete reports the closure in dependency order, which is also
	// the order the inverse must re-define in.
	c.snapshots = make([]dataSnapshot, len(removed))
	for i, name := range removed {
		c.snapshots[i] = byName[name]
	}
	return nil
}

func (c *DeleteData) Invert() Command {
	return &restoreData{items: slices.Clone(c.snapshots)}
}

// dataSnapshot holds everything needed to re-define one dataset.
type dataSnapshot struct {
	name string
	kind dataset.Kind
	cols dataset.Columns
	text []string
	def  *dataset.Definition
	tags []string
}

func snapshotData(store *dataset.Store, name string) (dataSnapshot, error) {
	info, err := store.Info(name)
	if err != nil {
		return dataSnapshot{}, err
	}
	snap := dataSnapshot{name: name, kind: info.Kind, def: info.Def, tags: info.Tags}
	switch {
	case info.Derived:
		// Formulas are enough; values recompute on demand.
	case info.Kind == dataset.KindText:
		if snap.text, err = store.Text(name); err != nil {
			return dataSnapshot{}, err
		}
	default:
		if snap.cols, err = store.Columns(name); err != nil {
			return dataSnapshot{}, err
		}
	}
	return snap, nil
}

// restoreData re-defines a deleted dataset closure in dependency
// order and restores its tags.
type restoreData struct {
	items []dataSnapshot
}

func (c *restoreData) CommandName() string { return "RestoreData" }

func (c *restoreData) Do(d *Document) error {
	for _, item := range c.items {
		var err error
		switch {
		case item.def != nil:
			err = d.store.DefineDerived(item.name, *item.def)
		case item.kind == dataset.KindText:
			err = d.store.DefineText(item.name, item.text)
		default:
			err = d.store.DefineRaw(item.name, item.cols)
		}
		if err != nil {
			return err
		}
		for _, tag := range item.tags {
			if err := d.store.Tag(item.name, tag); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *restoreData) Invert() Command {
	return &DeleteData{Name: c.items[0].name, Cascade: len(c.items) > 1}
}

// RenameData renames a dataset and rewrites every formula that
// references it.
type RenameData struct {
	Name    string `json:"name"`
	NewName string `json:"new_name"`
}

func (c *RenameData) CommandName() string { return "RenameData" }

func (c *RenameData) Do(d *Document) error {
	return d.store.Rename(c.Name, c.NewName)
}

func (c *RenameData) Invert() Command {
	return &RenameData{Name: c.NewName, NewName: c.Name}
}

// TagData adds a tag to a dataset. Tagging twice is a no-op.
type TagData struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`

	hadTag bool
}

func (c *TagData) CommandName() string { return "TagData" }

func (c *TagData) Do(d *Document) error {
	tags, err := d.store.TagsOf(c.Name)
	if err != nil {
		return err
	}
	if err := d.store.Tag(c.Name, c.Tag); err != nil {
		return err
	}
	c.hadTag = slices.Contains(tags, c.Tag)
	return nil
}

func (c *TagData) Invert() Command {
	if c.hadTag {
		return &TagData{Name: c.Name, Tag: c.Tag}
	}
	return &UntagData{Name: c.Name, Tag: c.Tag}
}

// UntagData removes a tag from a dataset. Removing an absent tag is a
// no-op.
type UntagData struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`

	hadTag bool
}

func (c *UntagData) CommandName() string { return "UntagData" }

func (c *UntagData) Do(d *Document) error {
	tags, err := d.store.TagsOf(c.Name)
	if err != nil {
		return err
	}
	if err := d.store.Untag(c.Name, c.Tag); err != nil {
		return err
	}
	c.hadTag = slices.Contains(tags, c.Tag)
	return nil
}

func (c *UntagData) Invert() Command {
	if c.hadTag {
		return &TagData{Name: c.Name, Tag: c.Tag}
	}
	return &UntagData{Name: c.Name, Tag: c.Tag}
}

// ===== Composite =====

// Composite applies a sequence of commands as one history entry. If
// any step fails, the already applied prefix is rolled back, so the
// whole composite is atomic.
type Composite struct {
	Label string    `json:"label,omitempty"`
	Ops   []Command `json:"ops"`
}

func (c *Composite) CommandName() string {
	if c.Label != "" {
		return c.Label
	}
	return "Composite"
}

func (c *Composite) Do(d *Document) error {
	for i, op := range c.Ops {
		if err := op.Do(d); err != nil {
			for j := i - 1; j >= 0; j-- {
				if rbErr := c.Ops[j].Invert().Do(d); rbErr != nil {
					return errors.Wrap(errors.ErrCodeInternal, rbErr,
						"rolling back %s after %s failed", c.Ops[j].CommandName(), op.CommandName())
				}
			}
			return err
		}
	}
	return nil
}

func (c *Composite) Invert() Command {
	inv := &Composite{Label: c.Label, Ops: make([]Command, len(c.Ops))}
	for i, op := range c.Ops {
		inv.Ops[len(c.Ops)-1-i] = op.Invert()
	}
	return inv
}
