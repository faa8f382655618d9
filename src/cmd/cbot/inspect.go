package main

import (
	"bufio"
	"flag"
	"io"
	"os"
	"sort"

	"github.com/phroun/cbot"
	"gopkg.in/yaml.v3"
)

type varDoc struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

type frameDoc struct {
	Function string   `yaml:"function"`
	Vars     []varDoc `yaml:"vars,omitempty"`
}

type classDoc struct {
	Class   string   `yaml:"class"`
	Statics []varDoc `yaml:"statics"`
}

type programDoc struct {
	Name     string     `yaml:"name"`
	Running  bool       `yaml:"running"`
	Entry    string     `yaml:"entry,omitempty"`
	Function string     `yaml:"function,omitempty"`
	Line     int        `yaml:"line,omitempty"`
	Column   int        `yaml:"column,omitempty"`
	Stack    []frameDoc `yaml:"stack,omitempty"`
}

// inspectDoc is the YAML view of a state file
type inspectDoc struct {
	Script   string       `yaml:"script"`
	Encoding string       `yaml:"encoding"`
	Statics  []classDoc   `yaml:"statics,omitempty"`
	Globals  []varDoc     `yaml:"globals,omitempty"`
	Programs []programDoc `yaml:"programs"`
}

func describeVars(vars []*cbot.Var) []varDoc {
	docs := make([]varDoc, 0, len(vars))
	for _, v := range vars {
		value := "<undefined>"
		if v.IsDefined() {
			value = v.String()
		}
		docs = append(docs, varDoc{Name: v.Name(), Type: v.TypeResult().String(), Value: value})
	}
	return docs
}

func describeProgram(p *cbot.Program) programDoc {
	doc := programDoc{Name: p.Name(), Running: p.IsRunning()}
	if !doc.Running {
		return doc
	}
	doc.Entry = p.Entry()
	fn, start, end := p.GetRunPos()
	pos := cbot.PositionAt(p.Source(), p.Name(), start, end)
	doc.Function, doc.Line, doc.Column = fn, pos.Line, pos.Column
	for level := 0; ; level++ {
		vars, name := p.GetStackVars(level)
		if name == "" && vars == nil {
			break
		}
		doc.Stack = append(doc.Stack, frameDoc{Function: name, Vars: describeVars(vars)})
	}
	return doc
}

// describeEnvironment builds the YAML view of a restored environment
func describeEnvironment(env *cbot.Environment, hdr saveHeader) inspectDoc {
	doc := inspectDoc{Script: hdr.Script, Encoding: hdr.Encoding}
	classes := env.Classes()
	sort.Slice(classes, func(i, j int) bool { return classes[i].Name() < classes[j].Name() })
	for _, c := range classes {
		if statics := c.Statics(); len(statics) > 0 {
			doc.Statics = append(doc.Statics, classDoc{Class: c.Name(), Statics: describeVars(statics)})
		}
	}
	doc.Globals = describeVars(env.Globals())
	for _, p := range env.Programs() {
		doc.Programs = append(doc.Programs, describeProgram(p))
	}
	return doc
}

func writeYAML(w io.Writer, doc any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func inspectCommand(args []string) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		errorPrintf("Error: inspect needs a state file and optionally the script\n")
		return 2
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		errorPrintf("Error: %v\n", err)
		return 1
	}
	defer f.Close()
	r := bufio.NewReader(f)
	hdr, err := readSaveHeader(r)
	if err != nil {
		errorPrintf("Error: %s: %v\n", fs.Arg(0), err)
		return 1
	}
	if fs.NArg() == 2 {
		hdr.Script = fs.Arg(1)
	}
	source, err := readSource(hdr.Script, hdr.Encoding)
	if err != nil {
		errorPrintf("Error reading script file: %v\n", err)
		return 1
	}

	env := newEnvironment(&runOptions{timer: -1})
	defer env.Free()
	if _, _, ok := compileScript(env, hdr.Script, source); !ok {
		return 1
	}
	if err := env.RestoreSession(r, nil); err != nil {
		errorPrintf("Error: cannot restore %s: %v\n", fs.Arg(0), err)
		return 1
	}
	if err := writeYAML(os.Stdout, describeEnvironment(env, hdr)); err != nil {
		errorPrintf("Error: %v\n", err)
		return 1
	}
	return 0
}
