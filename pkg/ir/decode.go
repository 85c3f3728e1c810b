package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Format identifies the encoding of an IR document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath infers the document format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// Parse decodes an IR document in the given format.
func Parse(data []byte, format Format) (*Policy, error) {
	switch format {
	case FormatJSON, "":
		return ParseJSON(data)
	case FormatYAML:
		return ParseYAML(data)
	}
	return nil, fmt.Errorf("%w: unsupported format %q", ErrDecode, format)
}

// ParseJSON decodes a JSON IR document.
func ParseJSON(data []byte) (*Policy, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a JSON IR document from r.
func Decode(r io.Reader) (*Policy, error) {
	var p Policy
	if err := jsonAPI.NewDecoder(r).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := p.resolve(); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseYAML decodes a YAML IR document with the same shape as the JSON
// encoding.
func ParseYAML(data []byte) (*Policy, error) {
	doc, err := YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	return ParseJSON(doc)
}

// YAMLToJSON re-encodes a YAML document as JSON.
func YAMLToJSON(data []byte) ([]byte, error) {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	tree, err := stringKeys(tree)
	if err != nil {
		return nil, err
	}
	out, err := jsonAPI.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

func stringKeys(x any) (any, error) {
	switch x := x.(type) {
	case map[string]any:
		for k, v := range x {
			c, err := stringKeys(v)
			if err != nil {
				return nil, err
			}
			x[k] = c
		}
		return x, nil
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, v := range x {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: non-string key %v", ErrDecode, k)
			}
			c, err := stringKeys(v)
			if err != nil {
				return nil, err
			}
			out[ks] = c
		}
		return out, nil
	case []any:
		for i, v := range x {
			c, err := stringKeys(v)
			if err != nil {
				return nil, err
			}
			x[i] = c
		}
		return x, nil
	}
	return x, nil
}

// MarshalJSON encodes p in the IR document format.
func MarshalJSON(p *Policy) ([]byte, error) {
	return jsonAPI.Marshal(p)
}

// resolve fills in statement file names. Unknown file indices are left
// blank; the validator reports them.
func (p *Policy) resolve() error {
	if p.Static == nil {
		p.Static = &Static{}
	}
	if p.Plans == nil {
		p.Plans = &Plans{}
	}
	if p.Funcs == nil {
		p.Funcs = &Funcs{}
	}
	return Walk(p, VisitorFunc(func(n Node) error {
		if n.Stmt == nil {
			return nil
		}
		loc := n.Stmt.Loc()
		if name, err := p.Static.File(loc.Index); err == nil {
			loc.File = name
		}
		return nil
	}))
}

type rawStmt struct {
	Type string          `json:"type"`
	Stmt json.RawMessage `json:"stmt"`
}

type rawBlock struct {
	Stmts []rawStmt `json:"stmts"`
}

// UnmarshalJSON decodes the tagged statement list.
func (b *Block) UnmarshalJSON(data []byte) error {
	var raw rawBlock
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Stmts = make([]Stmt, 0, len(raw.Stmts))
	for _, rs := range raw.Stmts {
		factory, ok := stmtFactories[rs.Type]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownStmt, rs.Type)
		}
		s := factory()
		if len(rs.Stmt) > 0 {
			if err := jsonAPI.Unmarshal(rs.Stmt, s); err != nil {
				return fmt.Errorf("%s: %w", rs.Type, err)
			}
		}
		b.Stmts = append(b.Stmts, s)
	}
	return nil
}

// MarshalJSON encodes the statements in their tagged form.
func (b *Block) MarshalJSON() ([]byte, error) {
	raw := rawBlock{Stmts: make([]rawStmt, len(b.Stmts))}
	for i, s := range b.Stmts {
		body, err := jsonAPI.Marshal(s)
		if err != nil {
			return nil, err
		}
		raw.Stmts[i] = rawStmt{Type: StmtType(s), Stmt: body}
	}
	return jsonAPI.Marshal(raw)
}

// BuiltinFunc declares a built-in used by the policy.
type BuiltinFunc struct {
	Name string       `json:"name"`
	Decl *BuiltinDecl `json:"decl,omitempty"`
}

// BuiltinDecl is the type signature of a built-in.
type BuiltinDecl struct {
	Type     string     `mapstructure:"type" json:"type"`
	Args     []TypeDecl `mapstructure:"args" json:"args,omitempty"`
	Result   *TypeDecl  `mapstructure:"result" json:"result,omitempty"`
	Variadic *TypeDecl  `mapstructure:"variadic" json:"variadic,omitempty"`
}

// TypeDecl describes one argument or result type.
type TypeDecl struct {
	Type string     `mapstructure:"type" json:"type"`
	Of   []TypeDecl `mapstructure:"of" json:"of,omitempty"`
}

// Arity returns the number of declared arguments, or -1 for variadic
// declarations and missing signatures.
func (b *BuiltinFunc) Arity() int {
	if b.Decl == nil || b.Decl.Variadic != nil {
		return -1
	}
	return len(b.Decl.Args)
}

// UnmarshalJSON decodes the declaration from its generic form.
func (b *BuiltinFunc) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name string         `json:"name"`
		Decl map[string]any `json:"decl"`
	}
	if err := jsonAPI.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Name = raw.Name
	b.Decl = nil
	if raw.Decl == nil {
		return nil
	}
	var decl BuiltinDecl
	if err := mapstructure.Decode(raw.Decl, &decl); err != nil {
		return fmt.Errorf("%w: builtin %q declaration: %v", ErrDecode, raw.Name, err)
	}
	b.Decl = &decl
	return nil
}
