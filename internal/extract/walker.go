package extract

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/cstrmap/internal/lang"
	"github.com/DeusData/cstrmap/internal/parser"
)

// Functions returns every function definition node under root in depth-first
// order. A recorded definition is not descended into, so a definition nested
// inside another one is never returned.
func Functions(root *tree_sitter.Node, spec *lang.LanguageSpec) []*tree_sitter.Node {
	funcKinds := toSet(spec.FunctionNodeTypes)
	var nodes []*tree_sitter.Node
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if funcKinds[node.Kind()] {
			nodes = append(nodes, node)
			return false
		}
		return true
	})
	return nodes
}

// Constants returns every literal constant node inside one function's subtree
// in depth-first order. The function node itself is skipped, a recorded
// constant is not descended into, and nested function definitions are pruned
// so their literals stay with the inner function.
func Constants(funcNode *tree_sitter.Node, spec *lang.LanguageSpec) []*tree_sitter.Node {
	funcKinds := toSet(spec.FunctionNodeTypes)
	constKinds := toSet(spec.ConstantNodeTypes)
	var nodes []*tree_sitter.Node
	parser.Walk(funcNode, func(node *tree_sitter.Node) bool {
		if node.Id() == funcNode.Id() {
			return true // skip self, walk children
		}
		if funcKinds[node.Kind()] {
			return false
		}
		if constKinds[node.Kind()] {
			nodes = append(nodes, node)
			return false
		}
		return true
	})
	return nodes
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}
