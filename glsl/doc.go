// Package glsl parses the subset of GLSL ES 3.00 exercised by WebGL2
// vertex and fragment shaders.
//
// # Components
//
//   - Lexer: tokenizes GLSL source, recognizing the #version 300 es
//     header, precision/storage/interpolation/layout qualifiers, and
//     the built-in scalar/vector/matrix/opaque type keywords.
//   - Parser: recursive-descent parser producing a Module AST.
//   - AST: Span-tagged node types for declarations, statements and
//     expressions.
//
// # Usage
//
//	lexer := glsl.NewLexer(source)
//	tokens, err := lexer.Tokenize()
//	if err != nil {
//	    // lexical error; source position is embedded in err
//	}
//	parser := glsl.NewParser(tokens)
//	module, diags := parser.Parse(lexer.VersionSeen)
//	if diags.HasErrors() {
//	    // diags.InfoLog() is ready to surface as the Shader's info log
//	}
//
// Supported subset: scalar/vector/matrix/sampler types, sized arrays,
// structs, swizzles, the full GLSL ES 3.00 operator set, function
// declarations and calls, and if/for/while/return/break/continue/
// discard control flow. Preprocessor directives other than #version are
// skipped by the lexer, so a macro name used in code is reported by the
// type checker as an undeclared identifier; a switch statement is a
// syntax error; a non-square matrix type name parses as an identifier
// and is rejected as an unknown type. Constructs outside the subset are
// reported as compile errors rather than silently miscompiled.
package glsl
