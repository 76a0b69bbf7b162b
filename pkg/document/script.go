package document

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/plotdeck/plotdeck/pkg/dataset"
	"github.com/plotdeck/plotdeck/pkg/errors"
)

// A script is the document's persistence format: one JSON command
// envelope per line,
//
//	{"op":"DefineData","args":{"name":"x","data":[1,2,3]}}
//	{"op":"AddWidget","args":{"parent":"/","type":"page","name":"page1"}}
//
// Saving emits the shortest command sequence that rebuilds the
// current state; loading wipes the document and replays. Blank lines
// and lines starting with # are ignored, so scripts stay
// hand-editable.

// maxScriptLine bounds one script line. Inline dataset values are the
// only thing that grows, and 16 MiB of JSON floats is roughly a
// million points.
const maxScriptLine = 16 << 20

type scriptLine struct {
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args,omitempty"`
}

type compositeArgs struct {
	Label string            `json:"label,omitempty"`
	Ops   []json.RawMessage `json:"ops"`
}

// commandFactories maps script op names to their zero commands. The
// unexported restore commands are inverses only and have no op name.
var commandFactories = map[string]func() Command{
	"AddWidget":      func() Command { return &AddWidget{} },
	"RemoveWidget":   func() Command { return &RemoveWidget{} },
	"MoveWidget":     func() Command { return &MoveWidget{} },
	"RenameWidget":   func() Command { return &RenameWidget{} },
	"SetSetting":     func() Command { return &SetSetting{} },
	"UnsetSetting":   func() Command { return &UnsetSetting{} },
	"SetStyle":       func() Command { return &SetStyle{} },
	"DefineData":     func() Command { return &DefineData{} },
	"DefineTextData": func() Command { return &DefineTextData{} },
	"DefineDerived":  func() Command { return &DefineDerived{} },
	"RedefineData":   func() Command { return &RedefineData{} },
	"SetValues":      func() Command { return &SetValues{} },
	"SetTextValues":  func() Command { return &SetTextValues{} },
	"DeleteData":     func() Command { return &DeleteData{} },
	"RenameData":     func() Command { return &RenameData{} },
	"TagData":        func() Command { return &TagData{} },
	"UntagData":      func() Command { return &UntagData{} },
}

// EncodeCommand serializes a command to its one-line script envelope.
func EncodeCommand(cmd Command) ([]byte, error) {
	var (
		op   string
		args []byte
		err  error
	)
	switch c := cmd.(type) {
	case *Composite:
		op = "Composite"
		enc := compositeArgs{Label: c.Label, Ops: make([]json.RawMessage, len(c.Ops))}
		for i, sub := range c.Ops {
			if enc.Ops[i], err = EncodeCommand(sub); err != nil {
				return nil, err
			}
		}
		args, err = json.Marshal(enc)
	default:
		op = cmd.CommandName()
		if _, ok := commandFactories[op]; !ok {
			return nil, errors.New(errors.ErrCodeUnsupported, "command %q cannot be serialized", op)
		}
		args, err = json.Marshal(cmd)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encoding %s", op)
	}
	return json.Marshal(scriptLine{Op: op, Args: args})
}

// DecodeCommand parses a script envelope back into a command.
func DecodeCommand(data []byte) (Command, error) {
	var line scriptLine
	if err := json.Unmarshal(data, &line); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parsing command")
	}
	if line.Op == "Composite" {
		var args compositeArgs
		if len(line.Args) > 0 {
			if err := json.Unmarshal(line.Args, &args); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parsing Composite args")
			}
		}
		comp := &Composite{Label: args.Label, Ops: make([]Command, len(args.Ops))}
		for i, raw := range args.Ops {
			sub, err := DecodeCommand(raw)
			if err != nil {
				return nil, err
			}
			comp.Ops[i] = sub
		}
		return comp, nil
	}

	factory, ok := commandFactories[line.Op]
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown command %q", line.Op)
	}
	cmd := factory()
	if len(line.Args) > 0 {
		if err := json.Unmarshal(line.Args, cmd); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parsing %s args", line.Op)
		}
	}
	return cmd, nil
}

// SaveScript writes the command script that rebuilds the document's
// current state: dataset definitions in dependency order with their
// tags, stylesheet overrides, then the widget tree with explicit
// settings. History is not part of the state and is not saved.
func (d *Document) SaveScript(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	emit := func(cmd Command) error {
		data, err := EncodeCommand(cmd)
		if err != nil {
			return err
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return errors.Wrap(errors.ErrCodeUnavailable, err, "writing script")
		}
		return nil
	}

	for _, name := range d.store.DefinitionOrder() {
		info, err := d.store.Info(name)
		if err != nil {
			return err
		}
		var cmd Command
		switch {
		case info.Def != nil:
			cmd = &DefineDerived{
				Name: name,
				Data: info.Def.Data, Serr: info.Def.Serr,
				Perr: info.Def.Perr, Nerr: info.Def.Nerr,
			}
		case info.Kind == dataset.KindText:
			values, err := d.store.Text(name)
			if err != nil {
				return err
			}
			cmd = &DefineTextData{Name: name, Values: values}
		default:
			cols, err := d.store.Columns(name)
			if err != nil {
				return err
			}
			cmd = &DefineData{
				Name: name,
				Data: cols.Data, Serr: cols.Serr, Perr: cols.Perr, Nerr: cols.Nerr,
			}
		}
		if err := emit(cmd); err != nil {
			return err
		}
		for _, tag := range info.Tags {
			if err := emit(&TagData{Name: name, Tag: tag}); err != nil {
				return err
			}
		}
	}

	for _, t := range d.style.Types() {
		for _, key := range d.style.Keys(t) {
			v, _ := d.style.Get(t, key)
			if err := emit(&SetStyle{Type: t, Key: key, Value: v}); err != nil {
				return err
			}
		}
	}

	var walk func(n *Node, path string) error
	walk = func(n *Node, path string) error {
		for _, c := range n.children {
			childPath := joinPath(path, c.name)
			if err := emit(&AddWidget{Parent: path, Type: c.typ, Name: c.name}); err != nil {
				return err
			}
			for _, key := range c.ExplicitKeys() {
				if err := emit(&SetSetting{Path: childPath, Key: key, Value: c.settings[key]}); err != nil {
					return err
				}
			}
			if err := walk(c, childPath); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(d.root, "/")
}

// LoadScript wipes the document and replays a script. The replayed
// commands do not enter the history, so a loaded document starts with
// nothing to undo.
//
// Replay stops at the first failing line, leaving the commands before
// it applied. Loading into a fresh document and swapping on success
// gives all-or-nothing behavior when that matters.
func (d *Document) LoadScript(r io.Reader) error {
	if !d.mu.TryLock() {
		return errors.New(errors.ErrCodeDocumentBusy, "document is busy with an export")
	}
	defer d.mu.Unlock()

	d.wipe()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxScriptLine)
	lineno := 0
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := DecodeCommand([]byte(line))
		if err != nil {
			return errors.Wrap(errors.GetCode(err), err, "script line %d", lineno)
		}
		if err := d.apply(cmd, false); err != nil {
			return errors.Wrap(errors.GetCode(err), err, "script line %d", lineno)
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "reading script")
	}
	return nil
}
