// Package snapshot_test provides golden snapshot tests for the shader
// compilation core.
//
// For each vertex/fragment source pair in testdata/in/ (<name>.vert +
// <name>.frag), the test compiles and links the pair and compares the
// WAT rendering of both linked modules to golden files stored in
// testdata/golden/. Golden files are created on first run; set
// UPDATE_GOLDEN=1 to regenerate them after intentional changes:
//
//	UPDATE_GOLDEN=1 go test ./snapshot/...
package snapshot_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gogpu/webglshader"
	"github.com/gogpu/webglshader/wasmgen/wat"
)

// shaderPair is one vertex/fragment input loaded from disk.
type shaderPair struct {
	name string
	vert string
	frag string
}

func TestSnapshots(t *testing.T) {
	pairs := loadInputPairs(t, filepath.Join("testdata", "in"))
	if len(pairs) == 0 {
		t.Fatal("no input shader pairs found in testdata/in/")
	}

	for i := range pairs {
		pair := &pairs[i]
		t.Run(pair.name, func(t *testing.T) {
			prog := linkPair(t, pair)

			t.Run("vert", func(t *testing.T) {
				text := wat.Format(prog.VertexModuleIR())
				compareGolden(t, filepath.Join("testdata", "golden", pair.name+".vert.wat"), text)
			})
			t.Run("frag", func(t *testing.T) {
				text := wat.Format(prog.FragmentModuleIR())
				compareGolden(t, filepath.Join("testdata", "golden", pair.name+".frag.wat"), text)
			})
		})
	}
}

// TestSnapshotDeterminism links every input pair twice and requires
// bit-identical binaries, independent of the golden files.
func TestSnapshotDeterminism(t *testing.T) {
	pairs := loadInputPairs(t, filepath.Join("testdata", "in"))
	for i := range pairs {
		pair := &pairs[i]
		t.Run(pair.name, func(t *testing.T) {
			a := linkPair(t, pair)
			b := linkPair(t, pair)
			if !bytes.Equal(a.VertexModule(), b.VertexModule()) {
				t.Error("vertex module bytes differ between identical links")
			}
			if !bytes.Equal(a.FragmentModule(), b.FragmentModule()) {
				t.Error("fragment module bytes differ between identical links")
			}
		})
	}
}

func linkPair(t *testing.T, pair *shaderPair) *webglshader.Program {
	t.Helper()
	vs := webglshader.NewShader(webglshader.VertexShader)
	vs.SetSource(pair.vert)
	vs.Compile()
	if !vs.CompileStatus() {
		t.Fatalf("%s.vert compile failed:\n%s", pair.name, vs.InfoLog())
	}
	fs := webglshader.NewShader(webglshader.FragmentShader)
	fs.SetSource(pair.frag)
	fs.Compile()
	if !fs.CompileStatus() {
		t.Fatalf("%s.frag compile failed:\n%s", pair.name, fs.InfoLog())
	}
	prog := webglshader.NewProgram()
	prog.Attach(vs)
	prog.Attach(fs)
	prog.Link()
	if !prog.LinkStatus() {
		t.Fatalf("%s link failed:\n%s", pair.name, prog.InfoLog())
	}
	return prog
}

func loadInputPairs(t *testing.T, dir string) []shaderPair {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read input dir: %v", err)
	}
	var pairs []shaderPair
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".vert") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".vert")
		vert, err := os.ReadFile(filepath.Join(dir, name+".vert"))
		if err != nil {
			t.Fatalf("read %s.vert: %v", name, err)
		}
		frag, err := os.ReadFile(filepath.Join(dir, name+".frag"))
		if err != nil {
			t.Fatalf("read %s.frag: %v", name, err)
		}
		pairs = append(pairs, shaderPair{name: name, vert: string(vert), frag: string(frag)})
	}
	return pairs
}

// compareGolden compares actual output with the golden file. A missing
// golden file is created from the actual output (first-run bootstrap);
// UPDATE_GOLDEN=1 rewrites existing files.
func compareGolden(t *testing.T, path, actual string) {
	t.Helper()

	expected, err := os.ReadFile(path)
	if os.IsNotExist(err) || os.Getenv("UPDATE_GOLDEN") != "" {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			t.Fatalf("create golden dir: %v", mkErr)
		}
		if wErr := os.WriteFile(path, []byte(actual), 0o644); wErr != nil {
			t.Fatalf("write golden file: %v", wErr)
		}
		t.Logf("wrote golden file: %s", path)
		return
	}
	if err != nil {
		t.Fatalf("read golden file: %v", err)
	}

	if string(expected) != actual {
		t.Errorf("output differs from golden file %s\n%s", path, diffSummary(string(expected), actual))
	}
}

// diffSummary points at the first differing line.
func diffSummary(expected, actual string) string {
	expLines := strings.Split(expected, "\n")
	actLines := strings.Split(actual, "\n")
	n := len(expLines)
	if len(actLines) < n {
		n = len(actLines)
	}
	for i := 0; i < n; i++ {
		if expLines[i] != actLines[i] {
			return "first difference at line " + strconv.Itoa(i+1) + ":\n  golden: " + expLines[i] + "\n  actual: " + actLines[i]
		}
	}
	return "line counts differ: golden " + strconv.Itoa(len(expLines)) + ", actual " + strconv.Itoa(len(actLines))
}
