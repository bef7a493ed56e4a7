// Package tlv renders payloads as Tag-Length-Value display trees.
//
// Tags are positional two-digit labels ("01", "02", ...), not protocol tag
// numbers: the tree is a readable approximation of an EMV-style payload, not
// a wire codec.
package tlv

import (
	"fmt"
	"unicode/utf8"

	"github.com/bcnelson/qr-template-studio/internal/payload"
)

// Node is one entry of a TLV display tree.
type Node struct {
	Tag      string `json:"tag"`
	Length   int    `json:"length"`
	Value    string `json:"value"`
	Children []Node `json:"children"`
}

// Result is the outcome of Parse. Fallback is set when the input could not be
// structured and Nodes holds the illustrative example tree instead.
type Result struct {
	Nodes    []Node `json:"nodes"`
	Fallback bool   `json:"fallback"`
}

// Label returns the tag label for the i-th (0-indexed) field. Labels past 99
// grow to three digits.
func Label(i int) string {
	return fmt.Sprintf("%02d", i+1)
}

// Build returns the TLV forest for an object, one root per key in insertion
// order.
func Build(obj *payload.Object) []Node {
	nodes, _ := buildObject(obj)
	return nodes
}

// BuildValue returns the TLV forest for any value. Objects and lists yield one
// node per member; a bare scalar yields an empty forest.
func BuildValue(v payload.Value) []Node {
	nodes, _ := buildChildren(v)
	return nodes
}

// The builders below return each forest together with the length of its
// container's compact JSON encoding, so lengths are summed bottom-up in the
// same walk instead of re-encoding every subtree.

func buildChildren(v payload.Value) ([]Node, int) {
	switch v.Kind() {
	case payload.KindObject:
		obj, _ := v.Object()
		return buildObject(obj)
	case payload.KindList:
		items, _ := v.Items()
		return buildList(items)
	default:
		return []Node{}, 0
	}
}

// buildObject sizes {"k":v,...} as braces, plus each encoded key, colon and
// member, plus the commas between members.
func buildObject(obj *payload.Object) ([]Node, int) {
	entries := obj.Entries()
	nodes := make([]Node, 0, len(entries))
	size := 2
	for i, e := range entries {
		node, n := buildNode(Label(i), e.Value)
		nodes = append(nodes, node)
		size += encodedLen(payload.String(e.Key)) + 1 + n
	}
	if len(entries) > 1 {
		size += len(entries) - 1
	}
	return nodes, size
}

func buildList(items []payload.Value) ([]Node, int) {
	nodes := make([]Node, 0, len(items))
	size := 2
	for i, item := range items {
		node, n := buildNode(Label(i), item)
		nodes = append(nodes, node)
		size += n
	}
	if len(items) > 1 {
		size += len(items) - 1
	}
	return nodes, size
}

// buildNode returns the node for v and the length of v's own encoding. A
// scalar node reports the length of its bare text; a string scalar encodes
// with quotes and escapes.
func buildNode(label string, v payload.Value) (Node, int) {
	if v.Kind() == payload.KindScalar {
		return Node{Tag: label, Length: v.Len(), Value: v.Text(), Children: []Node{}}, encodedLen(v)
	}
	children, size := buildChildren(v)
	return Node{Tag: label, Length: size, Children: children}, size
}

func encodedLen(scalar payload.Value) int {
	return utf8.RuneCountInString(scalar.CompactJSON())
}

// Parse interprets raw as JSON and builds its TLV forest. Input that is not a
// JSON object or list never fails: it yields the fallback example tree with
// Result.Fallback set.
func Parse(raw string) Result {
	v, err := payload.Parse([]byte(raw))
	if err != nil || v.Kind() == payload.KindScalar {
		return Result{Nodes: Fallback(), Fallback: true}
	}
	return Result{Nodes: BuildValue(v)}
}
