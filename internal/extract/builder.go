package extract

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/cstrmap/internal/lang"
	"github.com/DeusData/cstrmap/internal/parser"
)

// minTreeBytes is the smallest root-node byte span a real translation unit
// can have. Anything below it parsed to nothing usable.
const minTreeBytes = 10

var (
	// ErrEmptyTree reports a syntax tree below the minimum plausible size.
	ErrEmptyTree = errors.New("syntax tree below minimum plausible size")
	// ErrNoFunctions reports a file with zero function definitions.
	ErrNoFunctions = errors.New("no function definitions found")
)

// Association pairs one extracted string value with the name of the function
// containing it.
type Association struct {
	Value    string
	Function string
}

// Result holds everything extracted from one file's syntax tree.
type Result struct {
	// Functions lists discovered function names in traversal order.
	Functions []string
	// Associations lists (value, function) pairs in traversal order:
	// functions in tree order, values in tree order within each function.
	Associations []Association
}

// FromTree extracts string associations from a parsed file.
//
// Every function definition is visited in tree order. The literal constants
// inside it are filtered down to string values: a literal whose text parses
// as a base-10 integer is discarded, everything else is kept. Float-shaped
// and hex-shaped numbers fail that parse and are retained on purpose, since
// downstream consumers match them as text. Scratch state is allocated fresh
// per function, so no value can leak into a neighboring function's batch.
func FromTree(root *tree_sitter.Node, source []byte, spec *lang.LanguageSpec) (*Result, error) {
	if root == nil || root.EndByte()-root.StartByte() < minTreeBytes {
		return nil, ErrEmptyTree
	}

	funcNodes := Functions(root, spec)
	if len(funcNodes) == 0 {
		return nil, ErrNoFunctions
	}

	result := &Result{}
	for _, funcNode := range funcNodes {
		nameNode := funcNameNode(funcNode)
		if nameNode == nil {
			slog.Debug("extract.func.unnamed", "line", funcNode.StartPosition().Row+1)
			continue
		}
		name := parser.NodeText(nameNode, source)
		if name == "" {
			continue
		}
		slog.Debug("extract.func", "name", name)
		result.Functions = append(result.Functions, name)

		values := stringValues(funcNode, source, spec)
		for _, v := range values {
			result.Associations = append(result.Associations, Association{Value: v, Function: name})
		}
	}
	return result, nil
}

// stringValues drains one function's constant nodes into normalized string
// values. The returned slice is freshly allocated per call.
func stringValues(funcNode *tree_sitter.Node, source []byte, spec *lang.LanguageSpec) []string {
	strKinds := toSet(spec.StringNodeTypes)
	var values []string
	for _, node := range Constants(funcNode, spec) {
		text := literalText(node, source, strKinds)
		if _, err := strconv.Atoi(text); err == nil {
			continue
		}
		v := normalizeValue(text)
		if v == "" {
			continue
		}
		values = append(values, v)
	}
	return values
}

// literalText returns a constant node's source text. Adjacent string
// literals parse as one composite node; its string pieces are joined back
// to back, dropping the whitespace and any macro identifiers between them,
// so "conf" "ig.h" carries the single value the compiled program holds.
func literalText(node *tree_sitter.Node, source []byte, strKinds map[string]bool) string {
	if !strKinds[node.Kind()] {
		return parser.NodeText(node, source)
	}
	var parts []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && strKinds[child.Kind()] {
			parts = append(parts, parser.NodeText(child, source))
		}
	}
	if len(parts) == 0 {
		return parser.NodeText(node, source)
	}
	return strings.Join(parts, "")
}

// normalizeValue strips double-quote characters from a literal's source
// text. Single quotes around char literals are kept. Escape sequences stay
// as written in the source; the bundle writer collapses them at render time.
func normalizeValue(text string) string {
	return strings.ReplaceAll(text, `"`, "")
}

// funcNameNode returns the identifier node carrying a C function's name.
// The declarator chain may pass through pointer, parenthesized, or nested
// function declarators before reaching the identifier ("char *name(...)",
// "void (*install(int))(int)").
func funcNameNode(node *tree_sitter.Node) *tree_sitter.Node {
	decl := node.ChildByFieldName("declarator")
	for decl != nil && decl.Kind() != "identifier" {
		next := decl.ChildByFieldName("declarator")
		if next == nil {
			next = findChildByKind(decl, "identifier")
		}
		if next == nil {
			next = declaratorChild(decl)
		}
		decl = next
	}
	return decl
}

// declaratorChild returns the first child continuing a declarator chain.
// parenthesized_declarator wraps its inner declarator without a field name.
func declaratorChild(node *tree_sitter.Node) *tree_sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && strings.HasSuffix(child.Kind(), "_declarator") {
			return child
		}
	}
	return nil
}

func findChildByKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}
