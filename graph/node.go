package graph

/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/

import (
	"fmt"
)

// Keys of features every AST node carries, independent of its type.
const (
	PositionKey    = "position"
	OriginKey      = "originalNode"
	DestinationKey = "transpiledNodes"
)

// BuiltinLanguage is the language of classifiers common to all ASTs.
const BuiltinLanguage = "arbor"

// Classifiers of annotations and properties of the builtin language.
var (
	PlaceholderClassifier = Classifier{Language: BuiltinLanguage, Name: "PlaceholderNode"}
	DroppedClassifier     = Classifier{Language: BuiltinLanguage, Name: "DroppedElement"}
)

// Property keys of placeholder annotations.
const (
	PlaceholderMessageKey = "message"
	PlaceholderTypeKey    = "type"
)

// Classifier identifies a node type within a language.
type Classifier struct {
	Language string `json:"language"`
	Name     string `json:"name"`
}

func (c Classifier) String() string {
	return c.Language + ":" + c.Name
}

// IsZero is a predicate.
func (c Classifier) IsZero() bool {
	return c.Language == "" && c.Name == ""
}

// Property is a serialized property value. A nil Value denotes null.
type Property struct {
	Key   string
	Value *string
}

// Containment holds the children of a node for a single containment.
type Containment struct {
	Key      string
	Children []*Node
}

// ReferenceValue is a single target of a reference. Either of ResolveInfo and
// Target may be empty.
type ReferenceValue struct {
	ResolveInfo string
	Target      *Node
}

// TargetID returns the ID of the target, if any.
func (rv ReferenceValue) TargetID() string {
	if rv.Target == nil {
		return ""
	}
	return rv.Target.ID
}

// Reference holds the values of a node for a single reference.
type Reference struct {
	Key    string
	Values []ReferenceValue
}

// Annotation is a property bag attached to a node.
type Annotation struct {
	ID         string
	Classifier Classifier
	Properties []Property
}

// Property returns the value of a property of an annotation.
func (a *Annotation) Property(key string) (*string, bool) {
	return lookupProperty(a.Properties, key)
}

// SetProperty sets a property of an annotation.
func (a *Annotation) SetProperty(key string, value *string) {
	a.Properties = setProperty(a.Properties, key, value)
}

// Node is a node of a generic graph. Nodes are usually created with NewNode.
type Node struct {
	ID           string
	Classifier   Classifier
	Parent       *Node // may be a proxy
	Properties   []Property
	Containments []Containment
	References   []Reference
	Annotations  []*Annotation
	proxy        bool
}

// NewNode creates a node without any feature values.
func NewNode(id string, classifier Classifier) *Node {
	return &Node{ID: id, Classifier: classifier}
}

// Proxy creates a stand-in for a node of which only the ID is known.
func Proxy(id string) *Node {
	return &Node{ID: id, proxy: true}
}

// IsProxy is a predicate.
func (n *Node) IsProxy() bool {
	return n.proxy
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.proxy {
		return fmt.Sprintf("proxy(%s)", n.ID)
	}
	return fmt.Sprintf("%s#%s", n.Classifier.Name, n.ID)
}

// Str returns a pointer to a copy of s, for use as a property value.
func Str(s string) *string {
	return &s
}

// --- Properties ------------------------------------------------------------

// Property returns the value of a property. found is false if the property has
// never been set.
func (n *Node) Property(key string) (value *string, found bool) {
	return lookupProperty(n.Properties, key)
}

// SetProperty sets a property, keeping the position of a previous value.
func (n *Node) SetProperty(key string, value *string) {
	n.Properties = setProperty(n.Properties, key, value)
}

func lookupProperty(props []Property, key string) (*string, bool) {
	for _, p := range props {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

func setProperty(props []Property, key string, value *string) []Property {
	for i, p := range props {
		if p.Key == key {
			props[i].Value = value
			return props
		}
	}
	return append(props, Property{Key: key, Value: value})
}

// --- Containments ----------------------------------------------------------

// Children returns the children of a containment.
func (n *Node) Children(key string) []*Node {
	for _, c := range n.Containments {
		if c.Key == key {
			return c.Children
		}
	}
	return nil
}

// AllChildren returns the children of all containments, in order.
func (n *Node) AllChildren() []*Node {
	var children []*Node
	for _, c := range n.Containments {
		children = append(children, c.Children...)
	}
	return children
}

// AddChild appends a child to a containment and sets the child's parent.
func (n *Node) AddChild(key string, child *Node) {
	child.Parent = n
	for i, c := range n.Containments {
		if c.Key == key {
			n.Containments[i].Children = append(c.Children, child)
			return
		}
	}
	n.Containments = append(n.Containments, Containment{Key: key, Children: []*Node{child}})
}

// DeclareContainment makes an (empty) containment show up in the containment
// list, keeping the declared feature order stable in serialized form.
func (n *Node) DeclareContainment(key string) {
	for _, c := range n.Containments {
		if c.Key == key {
			return
		}
	}
	n.Containments = append(n.Containments, Containment{Key: key})
}

// --- References ------------------------------------------------------------

// ReferenceValues returns the values of a reference.
func (n *Node) ReferenceValues(key string) []ReferenceValue {
	for _, r := range n.References {
		if r.Key == key {
			return r.Values
		}
	}
	return nil
}

// AddReferenceValue appends a value to a reference.
func (n *Node) AddReferenceValue(key string, rv ReferenceValue) {
	for i, r := range n.References {
		if r.Key == key {
			n.References[i].Values = append(r.Values, rv)
			return
		}
	}
	n.References = append(n.References, Reference{Key: key, Values: []ReferenceValue{rv}})
}

// SetReferenceValues replaces the values of a reference.
func (n *Node) SetReferenceValues(key string, values []ReferenceValue) {
	for i, r := range n.References {
		if r.Key == key {
			n.References[i].Values = values
			return
		}
	}
	n.References = append(n.References, Reference{Key: key, Values: values})
}

// --- Annotations -----------------------------------------------------------

// AddAnnotation attaches an annotation to n.
func (n *Node) AddAnnotation(a *Annotation) {
	n.Annotations = append(n.Annotations, a)
}

// Annotation returns the first annotation with a given classifier, or nil.
func (n *Node) Annotation(c Classifier) *Annotation {
	for _, a := range n.Annotations {
		if a.Classifier == c {
			return a
		}
	}
	return nil
}
