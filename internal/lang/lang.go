package lang

// Language represents a supported programming language.
type Language string

const (
	C Language = "c"
)

// LanguageSpec defines the tree-sitter node types for a language.
type LanguageSpec struct {
	Language          Language
	FileExtensions    []string
	FunctionNodeTypes []string
	ModuleNodeTypes   []string

	// ConstantNodeTypes lists literal constant node kinds (numbers, chars, strings).
	ConstantNodeTypes []string
	// StringNodeTypes is the subset of ConstantNodeTypes carrying quoted string data.
	StringNodeTypes []string
}

// registry maps file extensions to language specs.
var registry = map[string]*LanguageSpec{}

// Register adds a LanguageSpec to the global registry.
func Register(spec *LanguageSpec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the LanguageSpec for a file extension (e.g. ".c"),
// or nil when the extension is not registered.
func ForExtension(ext string) *LanguageSpec {
	return registry[ext]
}

// ForLanguage returns the LanguageSpec for a language.
func ForLanguage(lang Language) *LanguageSpec {
	for _, spec := range registry {
		if spec.Language == lang {
			return spec
		}
	}
	return nil
}
