package glsl

import (
	"strings"
	"testing"
)

func parseSource(t *testing.T, source string) (*Module, error) {
	t.Helper()
	lexer := NewLexer(source)
	tokens, err := lexer.Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	parser := NewParser(tokens)
	module, diags := parser.Parse(lexer.VersionSeen && lexer.VersionES)
	if diags.HasErrors() {
		return module, diags
	}
	return module, nil
}

func TestParseMinimalVertexShader(t *testing.T) {
	module, err := parseSource(t, "#version 300 es\nvoid main(){gl_Position=vec4(0);}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(module.Functions) != 1 {
		t.Fatalf("expected 1 function, got %d", len(module.Functions))
	}
	fn := module.Functions[0]
	if fn.Name != "main" || fn.ReturnType.Name != "void" || len(fn.Params) != 0 {
		t.Errorf("unexpected main signature: %s %s(%d params)", fn.ReturnType.Name, fn.Name, len(fn.Params))
	}
	if len(fn.Body.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(fn.Body.Statements))
	}
	assign, ok := fn.Body.Statements[0].(*AssignStmt)
	if !ok {
		t.Fatalf("expected assignment, got %T", fn.Body.Statements[0])
	}
	if ident, ok := assign.Left.(*Ident); !ok || ident.Name != "gl_Position" {
		t.Errorf("expected gl_Position LHS, got %#v", assign.Left)
	}
	if call, ok := assign.Right.(*CallExpr); !ok || call.Callee.Name != "vec4" {
		t.Errorf("expected vec4 constructor RHS, got %#v", assign.Right)
	}
}

func TestParseMissingVersionDirective(t *testing.T) {
	_, err := parseSource(t, "void main(){}")
	if err == nil {
		t.Fatal("expected error for missing #version directive")
	}
	if !strings.Contains(err.Error(), "#version") {
		t.Errorf("error should mention #version, got %q", err.Error())
	}
}

func TestParseLayoutQualifier(t *testing.T) {
	module, err := parseSource(t, "#version 300 es\nlayout(location = 3) in vec4 a_pos;\nvoid main(){}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(module.Globals) != 1 {
		t.Fatalf("expected 1 global, got %d", len(module.Globals))
	}
	g := module.Globals[0]
	if g.Name != "a_pos" || g.Qualifiers.Storage != "in" {
		t.Errorf("unexpected global: %+v", g)
	}
	lq := g.Qualifiers.Layout
	if lq == nil || !lq.HasLocation || *lq.Location != 3 {
		t.Errorf("expected layout(location=3), got %+v", lq)
	}
}

func TestParseQualifiers(t *testing.T) {
	module, err := parseSource(t, `#version 300 es
flat in ivec4 v_id;
uniform mat4 u_mvp;
const float k = 1.5;
out highp vec4 v_color;
void main(){}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(module.Globals) != 4 {
		t.Fatalf("expected 4 globals, got %d", len(module.Globals))
	}
	if module.Globals[0].Qualifiers.Interpolation != "flat" || module.Globals[0].Qualifiers.Storage != "in" {
		t.Errorf("flat in: got %+v", module.Globals[0].Qualifiers)
	}
	if module.Globals[1].Qualifiers.Storage != "uniform" || module.Globals[1].Type.Name != "mat4" {
		t.Errorf("uniform mat4: got %+v", module.Globals[1])
	}
	if module.Globals[2].Qualifiers.Storage != "const" || module.Globals[2].Init == nil {
		t.Errorf("const with init: got %+v", module.Globals[2])
	}
	if module.Globals[3].Qualifiers.Storage != "out" || module.Globals[3].Type.Name != "vec4" {
		t.Errorf("out vec4: got %+v", module.Globals[3])
	}
}

func TestParsePrecisionDecl(t *testing.T) {
	module, err := parseSource(t, "#version 300 es\nprecision mediump float;\nvoid main(){}")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(module.Precisions) != 1 {
		t.Fatalf("expected 1 precision decl, got %d", len(module.Precisions))
	}
	p := module.Precisions[0]
	if p.Qualifier != "mediump" || p.TypeName != "float" {
		t.Errorf("unexpected precision decl: %+v", p)
	}
}

func TestParseFunctionWithParams(t *testing.T) {
	module, err := parseSource(t, `#version 300 es
vec4 transformVector(mat4 m, vec4 v) { return m * v; }
void main(){}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	fn := module.Functions[0]
	if fn.Name != "transformVector" || len(fn.Params) != 2 {
		t.Fatalf("unexpected function: %s with %d params", fn.Name, len(fn.Params))
	}
	if fn.Params[0].Type.Name != "mat4" || fn.Params[1].Type.Name != "vec4" {
		t.Errorf("unexpected param types: %s, %s", fn.Params[0].Type.Name, fn.Params[1].Type.Name)
	}
	ret, ok := fn.Body.Statements[0].(*ReturnStmt)
	if !ok {
		t.Fatalf("expected return, got %T", fn.Body.Statements[0])
	}
	if bin, ok := ret.Value.(*BinaryExpr); !ok || bin.Op != TokenStar {
		t.Errorf("expected m * v, got %#v", ret.Value)
	}
}

func TestParseArrayParameter(t *testing.T) {
	module, err := parseSource(t, `#version 300 es
float sumArray(float arr[4]) { return arr[0]; }
void main(){}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	p := module.Functions[0].Params[0]
	if p.Type.ArraySize == nil || *p.Type.ArraySize != 4 {
		t.Fatalf("expected float[4] parameter, got %+v", p.Type)
	}
}

func TestParseControlFlow(t *testing.T) {
	module, err := parseSource(t, `#version 300 es
void main() {
	float acc = 0.0;
	for (int i = 0; i < 4; i++) {
		if (acc > 2.0) { break; } else { acc += 1.0; }
	}
	while (acc > 0.0) { acc -= 1.0; }
}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	body := module.Functions[0].Body.Statements
	if len(body) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(body))
	}
	forStmt, ok := body[1].(*ForStmt)
	if !ok {
		t.Fatalf("expected for, got %T", body[1])
	}
	if forStmt.Init == nil || forStmt.Condition == nil || forStmt.Update == nil {
		t.Error("for loop should have init, condition and update")
	}
	ifStmt, ok := forStmt.Body.Statements[0].(*IfStmt)
	if !ok {
		t.Fatalf("expected if inside for, got %T", forStmt.Body.Statements[0])
	}
	if ifStmt.Else == nil {
		t.Error("expected else branch")
	}
	if _, ok := body[2].(*WhileStmt); !ok {
		t.Fatalf("expected while, got %T", body[2])
	}
}

func TestParseSwizzleAndIndex(t *testing.T) {
	module, err := parseSource(t, `#version 300 es
void main() {
	vec4 v = vec4(1.0);
	v.xy = v.yx;
	float x = v[0];
}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	body := module.Functions[0].Body.Statements
	assign, ok := body[1].(*AssignStmt)
	if !ok {
		t.Fatalf("expected assignment, got %T", body[1])
	}
	lhs, ok := assign.Left.(*FieldExpr)
	if !ok || lhs.Field != "xy" {
		t.Errorf("expected .xy swizzle LHS, got %#v", assign.Left)
	}
	decl, ok := body[2].(*VarDecl)
	if !ok {
		t.Fatalf("expected declaration, got %T", body[2])
	}
	if _, ok := decl.Init.(*IndexExpr); !ok {
		t.Errorf("expected index expression init, got %#v", decl.Init)
	}
}

func TestParseStruct(t *testing.T) {
	module, err := parseSource(t, `#version 300 es
struct Light {
	vec3 dir;
	float intensity;
};
void main(){}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(module.Structs) != 1 {
		t.Fatalf("expected 1 struct, got %d", len(module.Structs))
	}
	s := module.Structs[0]
	if s.Name != "Light" || len(s.Members) != 2 {
		t.Fatalf("unexpected struct: %s with %d members", s.Name, len(s.Members))
	}
	if s.Members[0].Name != "dir" || s.Members[0].Type.Name != "vec3" {
		t.Errorf("unexpected member 0: %+v", s.Members[0])
	}
}

func TestParseTernaryPrecedence(t *testing.T) {
	module, err := parseSource(t, `#version 300 es
void main() {
	float x = 1.0 > 0.5 ? 1.0 + 2.0 : 3.0 * 4.0;
}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	decl := module.Functions[0].Body.Statements[0].(*VarDecl)
	tern, ok := decl.Init.(*TernaryExpr)
	if !ok {
		t.Fatalf("expected ternary, got %#v", decl.Init)
	}
	if _, ok := tern.Condition.(*BinaryExpr); !ok {
		t.Errorf("expected comparison condition, got %#v", tern.Condition)
	}
}

func TestParseErrorRecovery(t *testing.T) {
	lexer := NewLexer("#version 300 es\nfloat = ;\nint + 2;\nvoid main(){}")
	tokens, err := lexer.Tokenize()
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	parser := NewParser(tokens)
	module, diags := parser.Parse(true)
	if !diags.HasErrors() {
		t.Fatal("expected parse errors")
	}
	if len(diags) < 2 {
		t.Errorf("expected recovery to surface multiple errors, got %d", len(diags))
	}
	// main should still have been parsed after recovery
	found := false
	for _, fn := range module.Functions {
		if fn.Name == "main" {
			found = true
		}
	}
	if !found {
		t.Error("expected main to survive error recovery")
	}
}

func TestParseErrorPosition(t *testing.T) {
	lexer := NewLexer("#version 300 es\nvoid main() { float x = ; }")
	tokens, _ := lexer.Tokenize()
	parser := NewParser(tokens)
	_, diags := parser.Parse(true)
	if !diags.HasErrors() {
		t.Fatal("expected a parse error")
	}
	log := diags.InfoLog()
	if !strings.HasPrefix(log, "ERROR:") {
		t.Errorf("info log should start with ERROR:, got %q", log)
	}
	if !strings.Contains(log, "(2:") {
		t.Errorf("info log should carry line 2 position, got %q", log)
	}
}
