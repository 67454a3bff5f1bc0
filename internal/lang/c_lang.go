package lang

func init() {
	Register(&LanguageSpec{
		Language:       C,
		FileExtensions: []string{".c"},
		FunctionNodeTypes: []string{
			"function_definition",
		},
		ModuleNodeTypes: []string{"translation_unit"},
		ConstantNodeTypes: []string{
			"number_literal",
			"char_literal",
			"string_literal",
			"concatenated_string",
		},
		StringNodeTypes: []string{"string_literal", "concatenated_string"},
	})
}
