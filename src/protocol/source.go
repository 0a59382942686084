package protocol

import (
	"encoding/json"
	"fmt"
)

// NodeSourceType tags the active NodeSource variant.
type NodeSourceType string

const (
	SourceLocal   NodeSourceType = "local"
	SourceGit     NodeSourceType = "git"
	SourceWasm    NodeSourceType = "wasm"
	SourcePython  NodeSourceType = "python"
	SourceUnknown NodeSourceType = "unknown"
)

// NodeSourceTypes lists every known NodeSourceType.
var NodeSourceTypes = []NodeSourceType{SourceLocal, SourceGit, SourceWasm, SourcePython, SourceUnknown}

// NodeSource records where a node's code comes from. Type selects exactly one
// variant; only the fields of that variant are meaningful:
//
//	local:   Path (optional)
//	git:     Repo, Rev (optional)
//	wasm:    Module
//	python:  Module, Environment (optional)
//	unknown: nothing
type NodeSource struct {
	Type        NodeSourceType
	Path        *string
	Repo        string
	Rev         *string
	Module      string
	Environment *string
}

// LocalSource builds a local variant.
func LocalSource(path *string) NodeSource { return NodeSource{Type: SourceLocal, Path: path} }

// GitSource builds a git variant.
func GitSource(repo string, rev *string) NodeSource {
	return NodeSource{Type: SourceGit, Repo: repo, Rev: rev}
}

// WasmSource builds a wasm variant.
func WasmSource(module string) NodeSource { return NodeSource{Type: SourceWasm, Module: module} }

// PythonSource builds a python variant.
func PythonSource(module string, environment *string) NodeSource {
	return NodeSource{Type: SourcePython, Module: module, Environment: environment}
}

// UnknownSource builds the unknown variant.
func UnknownSource() NodeSource { return NodeSource{Type: SourceUnknown} }

type localSourceJSON struct {
	Type NodeSourceType `json:"type"`
	Path *string        `json:"path"`
}

type gitSourceJSON struct {
	Type NodeSourceType `json:"type"`
	Repo string         `json:"repo"`
	Rev  *string        `json:"rev"`
}

type wasmSourceJSON struct {
	Type   NodeSourceType `json:"type"`
	Module string         `json:"module"`
}

type pythonSourceJSON struct {
	Type        NodeSourceType `json:"type"`
	Module      string         `json:"module"`
	Environment *string        `json:"environment"`
}

type tagOnlyJSON struct {
	Type NodeSourceType `json:"type"`
}

// MarshalJSON writes the internally tagged form, e.g. {"type":"git","repo":"...","rev":null}.
func (s NodeSource) MarshalJSON() ([]byte, error) {
	switch s.Type {
	case SourceLocal:
		return json.Marshal(localSourceJSON{Type: s.Type, Path: s.Path})
	case SourceGit:
		return json.Marshal(gitSourceJSON{Type: s.Type, Repo: s.Repo, Rev: s.Rev})
	case SourceWasm:
		return json.Marshal(wasmSourceJSON{Type: s.Type, Module: s.Module})
	case SourcePython:
		return json.Marshal(pythonSourceJSON{Type: s.Type, Module: s.Module, Environment: s.Environment})
	case SourceUnknown, "":
		return json.Marshal(tagOnlyJSON{Type: SourceUnknown})
	}
	return nil, fmt.Errorf("%w: node source %q", ErrUnknownVariant, s.Type)
}

// UnmarshalJSON reads the internally tagged form and rejects unknown tags
// and variants missing their required fields.
func (s *NodeSource) UnmarshalJSON(data []byte) error {
	var tag tagOnlyJSON
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}

	switch tag.Type {
	case SourceLocal:
		var v localSourceJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LocalSource(v.Path)
	case SourceGit:
		var v gitSourceJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		if v.Repo == "" {
			return fmt.Errorf("git node source: missing repo")
		}
		*s = GitSource(v.Repo, v.Rev)
	case SourceWasm:
		var v wasmSourceJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		if v.Module == "" {
			return fmt.Errorf("wasm node source: missing module")
		}
		*s = WasmSource(v.Module)
	case SourcePython:
		var v pythonSourceJSON
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		if v.Module == "" {
			return fmt.Errorf("python node source: missing module")
		}
		*s = PythonSource(v.Module, v.Environment)
	case SourceUnknown:
		*s = UnknownSource()
	default:
		return fmt.Errorf("%w: node source %q", ErrUnknownVariant, tag.Type)
	}
	return nil
}
