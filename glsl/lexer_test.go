package glsl

import (
	"testing"
)

func TestLexerBasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenKind
	}{
		{"+ - * /", []TokenKind{TokenPlus, TokenMinus, TokenStar, TokenSlash, TokenEOF}},
		{"( ) { }", []TokenKind{TokenLeftParen, TokenRightParen, TokenLeftBrace, TokenRightBrace, TokenEOF}},
		{"[ ] , .", []TokenKind{TokenLeftBracket, TokenRightBracket, TokenComma, TokenDot, TokenEOF}},
		{"; : ?", []TokenKind{TokenSemicolon, TokenColon, TokenQuestion, TokenEOF}},
	}

	for _, tt := range tests {
		lexer := NewLexer(tt.input)
		tokens, err := lexer.Tokenize()
		if err != nil {
			t.Errorf("Unexpected error: %v", err)
			continue
		}
		if len(tokens) != len(tt.expected) {
			t.Errorf("%q: expected %d tokens, got %d", tt.input, len(tt.expected), len(tokens))
			continue
		}
		for i, tok := range tokens {
			if tok.Kind != tt.expected[i] {
				t.Errorf("%q token %d: expected %v, got %v", tt.input, i, tt.expected[i], tok.Kind)
			}
		}
	}
}

func TestLexerOperators(t *testing.T) {
	input := "== != <= >= && || ^^ << >> ++ -- += -="
	expected := []TokenKind{
		TokenEqualEqual, TokenBangEqual, TokenLessEqual, TokenGreaterEqual,
		TokenAmpAmp, TokenPipePipe, TokenCaretCaret, TokenLessLess, TokenGreaterGreater,
		TokenPlusPlus, TokenMinusMinus, TokenPlusEqual, TokenMinusEqual, TokenEOF,
	}

	lexer := NewLexer(input)
	tokens, err := lexer.Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("Token %d: expected %v, got %v", i, expected[i], tok.Kind)
		}
	}
}

func TestLexerKeywords(t *testing.T) {
	input := "in out uniform const flat vec4 mat4 sampler2D void if for return"
	expected := []TokenKind{
		TokenIn, TokenOut, TokenUniform, TokenConst, TokenFlat,
		TokenVec4, TokenMat4, TokenSampler2D, TokenVoid,
		TokenIf, TokenFor, TokenReturn, TokenEOF,
	}

	lexer := NewLexer(input)
	tokens, err := lexer.Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("Token %d (%q): expected %v, got %v", i, tok.Lexeme, expected[i], tok.Kind)
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	tests := []struct {
		input string
		kind  TokenKind
	}{
		{"42", TokenIntLiteral},
		{"42u", TokenUintLiteral},
		{"1.5", TokenFloatLiteral},
		{"1.", TokenIntLiteral}, // "1" then "." — GLSL floats need a digit after the dot here
		{"2.0e3", TokenFloatLiteral},
		{"3f", TokenFloatLiteral},
		{"7E-2", TokenFloatLiteral},
	}
	for _, tt := range tests {
		lexer := NewLexer(tt.input)
		tokens, err := lexer.Tokenize()
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.input, err)
			continue
		}
		if tokens[0].Kind != tt.kind {
			t.Errorf("%q: expected %v, got %v", tt.input, tt.kind, tokens[0].Kind)
		}
	}
}

func TestLexerVersionDirective(t *testing.T) {
	lexer := NewLexer("#version 300 es\nvoid main(){}")
	if _, err := lexer.Tokenize(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !lexer.VersionSeen || !lexer.VersionES {
		t.Errorf("expected #version 300 es to be recognized, got seen=%v es=%v", lexer.VersionSeen, lexer.VersionES)
	}

	lexer = NewLexer("void main(){}")
	if _, err := lexer.Tokenize(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if lexer.VersionSeen {
		t.Error("expected no version directive")
	}
}

func TestLexerComments(t *testing.T) {
	input := "// line comment\nfloat /* block\ncomment */ x"
	expected := []TokenKind{TokenFloat, TokenIdent, TokenEOF}

	lexer := NewLexer(input)
	tokens, err := lexer.Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(tokens) != len(expected) {
		t.Fatalf("Expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("Token %d: expected %v, got %v", i, expected[i], tok.Kind)
		}
	}
}

func TestLexerPositions(t *testing.T) {
	lexer := NewLexer("float\n  x;")
	tokens, err := lexer.Tokenize()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if tokens[0].Line != 1 || tokens[0].Column != 1 {
		t.Errorf("float: expected 1:1, got %d:%d", tokens[0].Line, tokens[0].Column)
	}
	if tokens[1].Line != 2 || tokens[1].Column != 3 {
		t.Errorf("x: expected 2:3, got %d:%d", tokens[1].Line, tokens[1].Column)
	}
}

func TestLexerUnterminatedBlockComment(t *testing.T) {
	lexer := NewLexer("/* never closed")
	if _, err := lexer.Tokenize(); err == nil {
		t.Error("expected error for unterminated block comment")
	}
}
