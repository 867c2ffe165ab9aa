// Package outspec loads and validates the output specification: the
// declaration of which files to write, and for each file which
// variables to compute, in what datatype, dimension order, and units
// (spec.md §5).
package outspec

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/viant/dflow/physarray"
	"github.com/viant/dflow/xerrors"
)

// Spec is the root of an output specification document.
type Spec struct {
	Files []File `yaml:"files"` // output files to produce
}

// File declares one output file and the variables it carries.
type File struct {
	Name      string            `yaml:"name"`            // logical name, used in diagnostics
	Path      string            `yaml:"path"`             // destination URL/path
	Attrs     map[string]string `yaml:"attrs,omitempty"`  // global attributes, handed to the writer; the sidecar header does not record them
	Chunks    map[string]int    `yaml:"chunks,omitempty"` // dim -> chunk size; absent dim means "whole axis per chunk"
	Variables []Variable        `yaml:"variables"`
}

// Variable declares one output variable: its symbolic definition (C3),
// declared datatype, target dimension order, and optional target units
// and positive direction the reconciler must reconcile the definition's
// result against.
type Variable struct {
	Name       string            `yaml:"name"`
	Definition string            `yaml:"definition"`          // symbolic expression, parsed by defn
	Datatype   string            `yaml:"datatype"`             // declared output datatype token
	Dimensions []string          `yaml:"dimensions,omitempty"` // target dimension order; empty means "whatever the definition produces"
	Units      string            `yaml:"units,omitempty"`      // target units; empty means "whatever the definition produces"
	Positive   string            `yaml:"positive,omitempty"`   // "up" or "down"; empty means unconstrained
	Attrs      map[string]string `yaml:"attrs,omitempty"`
}

// Load reads and parses an output specification document.
func Load(ctx context.Context, fs afs.Service, path string) (*Spec, error) {
	raw, err := fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, &xerrors.IOError{Path: path, Op: "read output spec", Cause: err}
	}
	spec := &Spec{}
	if err := yaml.Unmarshal(raw, spec); err != nil {
		return nil, &xerrors.IOError{Path: path, Op: "decode output spec", Cause: err}
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Validate checks the specification's internal structure: every file
// and variable is named, every definition is non-empty, declared
// datatypes are recognized, and a variable's target dimensions contain
// no repeats. It does not check the definitions themselves — that
// happens when defn parses them and the reconciler binds them against
// a catalog.
func (s *Spec) Validate() error {
	seenFiles := map[string]bool{}
	for _, f := range s.Files {
		if f.Name == "" {
			return &xerrors.ParseError{Reason: "output file is missing a name"}
		}
		if f.Path == "" {
			return &xerrors.ParseError{Reason: fmt.Sprintf("output file %q is missing a path", f.Name)}
		}
		if seenFiles[f.Name] {
			return &xerrors.ParseError{Reason: fmt.Sprintf("output file name %q is declared more than once", f.Name)}
		}
		seenFiles[f.Name] = true

		seenVars := map[string]bool{}
		for _, v := range f.Variables {
			if v.Name == "" {
				return &xerrors.ParseError{Reason: fmt.Sprintf("file %q declares a variable with no name", f.Name)}
			}
			if seenVars[v.Name] {
				return &xerrors.ParseError{Reason: fmt.Sprintf("file %q declares variable %q more than once", f.Name, v.Name)}
			}
			seenVars[v.Name] = true
			if v.Definition == "" {
				return &xerrors.ParseError{Reason: fmt.Sprintf("variable %q has no definition", v.Name)}
			}
			if v.Datatype != "" && !physarray.DType(v.Datatype).Valid() {
				return &xerrors.ParseError{Reason: fmt.Sprintf("variable %q declares unknown datatype %q", v.Name, v.Datatype)}
			}
			if v.Positive != "" && v.Positive != "up" && v.Positive != "down" {
				return &xerrors.ParseError{Reason: fmt.Sprintf("variable %q declares invalid positive direction %q", v.Name, v.Positive)}
			}
			seenDims := map[string]bool{}
			for _, d := range v.Dimensions {
				if seenDims[d] {
					return &xerrors.ParseError{Reason: fmt.Sprintf("variable %q repeats dimension %q", v.Name, d)}
				}
				seenDims[d] = true
			}
		}
	}
	return nil
}
