// Command glslc compiles a GLSL ES 3.00 vertex/fragment shader pair to
// WebAssembly modules and prints the resolved program layout.
//
// Usage:
//
//	glslc [options] <vertex.vert> <fragment.frag>
//
// Examples:
//
//	glslc shader.vert shader.frag              # Compile and link, print layout
//	glslc -o out shader.vert shader.frag       # Write out.vert.wasm / out.frag.wasm
//	glslc -wat -o out shader.vert shader.frag  # Also write out.vert.wat / out.frag.wat
//	glslc -bind sprite.yaml shader.vert shader.frag
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"sort"

	"github.com/gogpu/webglshader"
	"github.com/gogpu/webglshader/bindcfg"
	"github.com/gogpu/webglshader/wasmgen"
	"github.com/gogpu/webglshader/wasmgen/wat"
)

var (
	output      = flag.String("o", "", "output path prefix (default: no files written)")
	watFlag     = flag.Bool("wat", false, "also write WebAssembly text alongside binaries")
	bindFile    = flag.String("bind", "", "YAML attribute binding configuration")
	versionFlag = flag.Bool("version", false, "print version")
)

// version returns the module version from build info.
func version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "dev"
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *versionFlag {
		fmt.Printf("glslc version %s\n", version())
		return
	}

	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Error: need a vertex and a fragment shader file")
		usage()
		os.Exit(1)
	}

	vs := compileFile(webglshader.VertexShader, args[0])
	fs := compileFile(webglshader.FragmentShader, args[1])

	prog := webglshader.NewProgram()
	prog.Attach(vs)
	prog.Attach(fs)

	if *bindFile != "" {
		data, err := os.ReadFile(*bindFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading bindings: %v\n", err)
			os.Exit(1)
		}
		bindings, err := bindcfg.Load(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing bindings: %v\n", err)
			os.Exit(1)
		}
		prog.ApplyBindings(bindings)
	}

	prog.Link()
	if !prog.LinkStatus() {
		fmt.Fprintf(os.Stderr, "Link error:\n%s", prog.InfoLog())
		os.Exit(1)
	}

	printLayout(prog)

	if *output != "" {
		writeOutput(*output+".vert.wasm", prog.VertexModule())
		writeOutput(*output+".frag.wasm", prog.FragmentModule())
		if *watFlag {
			writeText(*output+".vert.wat", prog.VertexModuleIR())
			writeText(*output+".frag.wat", prog.FragmentModuleIR())
		}
	}
}

func compileFile(kind webglshader.ShaderKind, path string) *webglshader.Shader {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}
	s := webglshader.NewShader(kind)
	s.SetSource(string(source))
	s.Compile()
	if !s.CompileStatus() {
		fmt.Fprintf(os.Stderr, "Compile error in %s:\n%s", path, s.InfoLog())
		os.Exit(1)
	}
	return s
}

func printLayout(prog *webglshader.Program) {
	layout := prog.Layout()

	fmt.Printf("attributes (%d):\n", len(layout.Attributes))
	names := make([]string, 0, len(layout.Attributes))
	for n := range layout.Attributes {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		a := layout.Attributes[n]
		fmt.Printf("  %-20s %-8s location=%d offset=%d\n", a.Name, a.Type, a.Location, a.Offset)
	}

	fmt.Printf("varyings (%d):\n", len(layout.Varyings))
	names = names[:0]
	for n := range layout.Varyings {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		v := layout.Varyings[n]
		fmt.Printf("  %-20s %-8s location=%d offset=%d\n", v.Name, v.Type, v.Location, v.Offset)
	}

	fmt.Printf("uniforms (%d):\n", len(layout.Uniforms))
	names = names[:0]
	for n := range layout.Uniforms {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		u := layout.Uniforms[n]
		fmt.Printf("  %-20s %-8s location=%d\n", u.Name, u.Type, u.Location)
	}
}

func writeOutput(path string, data []byte) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d bytes)\n", path, len(data))
}

func writeText(path string, module *wasmgen.Module) {
	if module == nil {
		return
	}
	if err := os.WriteFile(path, []byte(wat.Format(module)), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", path)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: glslc [options] <vertex.vert> <fragment.frag>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  glslc shader.vert shader.frag           Link and print layout\n")
	fmt.Fprintf(os.Stderr, "  glslc -o out shader.vert shader.frag    Write out.vert.wasm / out.frag.wasm\n")
	fmt.Fprintf(os.Stderr, "  glslc -wat -o out shader.vert shader.frag  Include .wat disassembly\n")
}
