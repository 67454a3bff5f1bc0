package main

import (
	"fmt"
	"os"

	"github.com/DeusData/cstrmap/internal/parser"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func printAST(node *tree_sitter.Node, source []byte, indent int) {
	if node == nil {
		return
	}
	prefix := ""
	for i := 0; i < indent; i++ {
		prefix += "  "
	}
	parentKind := "nil"
	if node.Parent() != nil {
		parentKind = node.Parent().Kind()
	}
	text := string(source[node.StartByte():node.EndByte()])
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	fmt.Printf("%s%s (parent=%s) %q\n", prefix, node.Kind(), parentKind, text)
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(node.Child(i), source, indent+1)
	}
}

func dump(title string, source []byte) {
	fmt.Printf("=== %s ===\n", title)
	tree, err := parser.Parse(source)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	printAST(tree.RootNode(), source, 0)
	tree.Close()
}

func main() {
	// With a file argument, dump that file's AST.
	if len(os.Args) > 1 {
		source, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		dump(os.Args[1], source)
		return
	}

	// Check literal node kinds inside a function body
	dump("C LITERALS", []byte("int main(void) {\n    int n = 42;\n    float f = 3.14;\n    char c = 'x';\n    printf(\"hello\\n\");\n    return 0;\n}\n"))

	// Check declarator nesting for pointer returns and nested functions
	fmt.Println()
	dump("C DECLARATORS", []byte("char *name(int id) {\n    return \"bob\";\n}\n\nstatic const char *label = \"outside\";\n"))
}
