package graph

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// FormatVersion is the version of the serialization format written by this
// package.
const FormatVersion = "1"

// ErrFormat is returned for chunks which cannot be decoded into a graph.
var ErrFormat = errors.New("malformed graph chunk")

// chunk is the serialized form of a set of trees: a flat list of nodes, linked
// by IDs.
type chunk struct {
	Version   string     `json:"serializationFormatVersion"`
	Languages []string   `json:"languages"`
	Nodes     []jsonNode `json:"nodes"`
}

type jsonNode struct {
	ID           string            `json:"id"`
	Classifier   Classifier        `json:"classifier"`
	Properties   []jsonProperty    `json:"properties"`
	Containments []jsonContainment `json:"containments"`
	References   []jsonReference   `json:"references"`
	Annotations  []jsonAnnotation  `json:"annotations"`
	Parent       *string           `json:"parent"`
}

type jsonProperty struct {
	Property string  `json:"property"`
	Value    *string `json:"value"`
}

type jsonContainment struct {
	Containment string   `json:"containment"`
	Children    []string `json:"children"`
}

type jsonReference struct {
	Reference string       `json:"reference"`
	Targets   []jsonTarget `json:"targets"`
}

type jsonTarget struct {
	ResolveInfo *string `json:"resolveInfo"`
	Reference   *string `json:"reference"`
}

type jsonAnnotation struct {
	ID         string         `json:"id"`
	Classifier Classifier     `json:"classifier"`
	Properties []jsonProperty `json:"properties"`
}

// EncodeJSON writes the trees rooted at roots as a single chunk.
func EncodeJSON(w io.Writer, roots ...*Node) error {
	c := toChunk(roots)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// DecodeJSON reads a chunk and returns the roots of the trees it contains,
// i.e. the nodes without a parent in the chunk, in chunk order.
func DecodeJSON(r io.Reader) ([]*Node, error) {
	var c chunk
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return fromChunk(&c)
}

func toChunk(roots []*Node) *chunk {
	c := &chunk{Version: FormatVersion, Languages: []string{}, Nodes: []jsonNode{}}
	seen := make(map[*Node]bool)
	langs := make(map[string]bool)
	for _, root := range roots {
		for _, n := range ThisAndDescendants(root) {
			if seen[n] || n.IsProxy() {
				continue
			}
			seen[n] = true
			if !langs[n.Classifier.Language] {
				langs[n.Classifier.Language] = true
				c.Languages = append(c.Languages, n.Classifier.Language)
			}
			c.Nodes = append(c.Nodes, toJSONNode(n))
		}
	}
	return c
}

func toJSONNode(n *Node) jsonNode {
	jn := jsonNode{
		ID:           n.ID,
		Classifier:   n.Classifier,
		Properties:   toJSONProperties(n.Properties),
		Containments: make([]jsonContainment, 0, len(n.Containments)),
		References:   make([]jsonReference, 0, len(n.References)),
		Annotations:  make([]jsonAnnotation, 0, len(n.Annotations)),
	}
	for _, cont := range n.Containments {
		jc := jsonContainment{Containment: cont.Key, Children: make([]string, len(cont.Children))}
		for i, ch := range cont.Children {
			jc.Children[i] = ch.ID
		}
		jn.Containments = append(jn.Containments, jc)
	}
	for _, ref := range n.References {
		jr := jsonReference{Reference: ref.Key, Targets: make([]jsonTarget, len(ref.Values))}
		for i, rv := range ref.Values {
			if rv.ResolveInfo != "" {
				jr.Targets[i].ResolveInfo = Str(rv.ResolveInfo)
			}
			if rv.Target != nil {
				jr.Targets[i].Reference = Str(rv.Target.ID)
			}
		}
		jn.References = append(jn.References, jr)
	}
	for _, a := range n.Annotations {
		jn.Annotations = append(jn.Annotations, jsonAnnotation{
			ID:         a.ID,
			Classifier: a.Classifier,
			Properties: toJSONProperties(a.Properties),
		})
	}
	if n.Parent != nil {
		jn.Parent = Str(n.Parent.ID)
	}
	return jn
}

func toJSONProperties(props []Property) []jsonProperty {
	jp := make([]jsonProperty, len(props))
	for i, p := range props {
		jp[i] = jsonProperty{Property: p.Key, Value: p.Value}
	}
	return jp
}

func fromProperties(jp []jsonProperty) []Property {
	if len(jp) == 0 {
		return nil
	}
	props := make([]Property, len(jp))
	for i, p := range jp {
		props[i] = Property{Key: p.Property, Value: p.Value}
	}
	return props
}

func fromChunk(c *chunk) ([]*Node, error) {
	if c.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported format version %q", ErrFormat, c.Version)
	}
	byID := make(map[string]*Node, len(c.Nodes))
	nodes := make([]*Node, len(c.Nodes))
	for i, jn := range c.Nodes {
		if jn.ID == "" {
			return nil, fmt.Errorf("%w: node without ID", ErrFormat)
		}
		if _, dup := byID[jn.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node ID %s", ErrFormat, jn.ID)
		}
		n := NewNode(jn.ID, jn.Classifier)
		n.Properties = fromProperties(jn.Properties)
		for _, ja := range jn.Annotations {
			n.AddAnnotation(&Annotation{
				ID:         ja.ID,
				Classifier: ja.Classifier,
				Properties: fromProperties(ja.Properties),
			})
		}
		byID[jn.ID] = n
		nodes[i] = n
	}
	target := func(id string) *Node {
		if n, ok := byID[id]; ok {
			return n
		}
		return Proxy(id)
	}
	for i, jn := range c.Nodes {
		n := nodes[i]
		for _, jc := range jn.Containments {
			n.DeclareContainment(jc.Containment)
			for _, id := range jc.Children {
				child, ok := byID[id]
				if !ok {
					return nil, fmt.Errorf("%w: child %s of %s is not part of the chunk", ErrFormat, id, n)
				}
				if child.Parent != nil {
					return nil, fmt.Errorf("%w: %s is contained twice", ErrFormat, child)
				}
				n.AddChild(jc.Containment, child)
			}
		}
		for _, jr := range jn.References {
			values := make([]ReferenceValue, len(jr.Targets))
			for j, jt := range jr.Targets {
				if jt.ResolveInfo != nil {
					values[j].ResolveInfo = *jt.ResolveInfo
				}
				if jt.Reference != nil {
					values[j].Target = target(*jt.Reference)
				}
			}
			n.SetReferenceValues(jr.Reference, values)
		}
	}
	var roots []*Node
	for i, jn := range c.Nodes {
		n := nodes[i]
		if jn.Parent == nil {
			if n.Parent != nil {
				return nil, fmt.Errorf("%w: %s is contained by %s, but has no parent", ErrFormat, n, n.Parent)
			}
			roots = append(roots, n)
			continue
		}
		if n.Parent == nil {
			if _, ok := byID[*jn.Parent]; ok {
				return nil, fmt.Errorf("%w: parent %s does not contain %s", ErrFormat, *jn.Parent, n)
			}
			n.Parent = Proxy(*jn.Parent)
			roots = append(roots, n)
		} else if n.Parent.ID != *jn.Parent {
			return nil, fmt.Errorf("%w: parent of %s is %s, but it is contained by %s",
				ErrFormat, n, *jn.Parent, n.Parent)
		}
	}
	if err := CheckContainment(nodes); err != nil {
		return nil, err
	}
	tracer().Debugf("decoded chunk with %d nodes and %d roots", len(nodes), len(roots))
	return roots, nil
}
