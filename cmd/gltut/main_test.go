package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// isolate keeps config lookup away from the developer's own files and
// returns the absolute path of the shared decoder fixtures.
func isolate(t *testing.T) string {
	t.Helper()
	fixtures, err := filepath.Abs(filepath.Join("..", "..", "pkg", "formats", "testdata"))
	if err != nil {
		t.Fatalf("failed to resolve fixtures: %v", err)
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
	return fixtures
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	isolate(t)

	tests := []struct {
		args []string
		code int
	}{
		{nil, 1},
		{[]string{"help"}, 0},
		{[]string{"frobnicate"}, 1},
		{[]string{"info", "-no-such-flag"}, 2},
	}

	for _, tt := range tests {
		if code, _, _ := runCmd(t, tt.args...); code != tt.code {
			t.Errorf("%v: expected exit %d, got %d", tt.args, tt.code, code)
		}
	}
}

func TestRun_InfoTexture(t *testing.T) {
	fixtures := isolate(t)

	code, out, errOut := runCmd(t, "info", filepath.Join(fixtures, "checker.bmp"))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}
	for _, want := range []string{"Kind:        texture", "Size:        2x2", "Pixels:      12 bytes"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRun_InfoMesh(t *testing.T) {
	fixtures := isolate(t)

	code, out, errOut := runCmd(t, "info", filepath.Join(fixtures, "cube.obj"))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Triangles:   12") || !strings.Contains(out, "Vertices:    36") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRun_InfoUnknown(t *testing.T) {
	isolate(t)
	if err := os.WriteFile("notes.txt", []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	code, _, errOut := runCmd(t, "info", "notes.txt")
	if code != 1 || !strings.Contains(errOut, "not a BMP texture or OBJ mesh") {
		t.Errorf("expected rejection, got exit %d: %s", code, errOut)
	}
}

func TestRun_Convert(t *testing.T) {
	fixtures := isolate(t)

	code, out, errOut := runCmd(t, "convert", "-max-size", "1", "-color-key", "#ff0000",
		filepath.Join(fixtures, "checker.bmp"), "out/checker.png")
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}
	if !strings.Contains(out, "(1x1)") {
		t.Errorf("expected 1x1 output, got %q", out)
	}

	f, err := os.Open("out/checker.png")
	if err != nil {
		t.Fatalf("expected converted file: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if img.Bounds().Dx() != 1 || img.Bounds().Dy() != 1 {
		t.Errorf("expected 1x1 image, got %v", img.Bounds())
	}
}

func TestRun_ConvertDefaultOutput(t *testing.T) {
	fixtures := isolate(t)

	data, err := os.ReadFile(filepath.Join(fixtures, "checker.bmp"))
	if err != nil {
		t.Fatalf("failed to read fixture: %v", err)
	}
	if err := os.WriteFile("wall.bmp", data, 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	if code, _, errOut := runCmd(t, "convert", "-format", "tga", "wall.bmp"); code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}
	if _, err := os.Stat("wall.tga"); err != nil {
		t.Errorf("expected wall.tga next to the input: %v", err)
	}
}

func TestRun_Mesh(t *testing.T) {
	fixtures := isolate(t)

	code, out, errOut := runCmd(t, "mesh", "-indexed", "-out", "cube.bin", filepath.Join(fixtures, "cube.obj"))
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s", code, errOut)
	}
	if !strings.Contains(out, "Indices:     36") {
		t.Errorf("expected 36 indices in output:\n%s", out)
	}

	info, err := os.Stat("cube.bin")
	if err != nil {
		t.Fatalf("expected vertex buffer file: %v", err)
	}
	if info.Size() == 0 || info.Size()%(8*4) != 0 {
		t.Errorf("expected a whole number of 32-byte vertices, got %d bytes", info.Size())
	}
}

func TestRun_Validate(t *testing.T) {
	fixtures := isolate(t)

	assetsDir := t.TempDir()
	for _, name := range []string{"checker.bmp", "cube.obj"} {
		data, err := os.ReadFile(filepath.Join(fixtures, name))
		if err != nil {
			t.Fatalf("failed to read fixture: %v", err)
		}
		if err := os.WriteFile(filepath.Join(assetsDir, name), data, 0644); err != nil {
			t.Fatalf("failed to copy fixture: %v", err)
		}
	}

	code, out, errOut := runCmd(t, "validate", "-workers", "2", assetsDir)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d: %s\n%s", code, out, errOut)
	}
	if !strings.Contains(out, "2 assets, 0 failed") {
		t.Errorf("unexpected summary:\n%s", out)
	}

	bad := "v 0 0 0\nf 1/1/1 2/2/2 3/3/3\n"
	if err := os.WriteFile(filepath.Join(assetsDir, "broken.obj"), []byte(bad), 0644); err != nil {
		t.Fatalf("failed to write broken mesh: %v", err)
	}

	code, out, _ = runCmd(t, "validate", assetsDir)
	if code != 1 {
		t.Errorf("expected exit 1 with a broken asset, got %d", code)
	}
	if !strings.Contains(out, "FAIL") || !strings.Contains(out, "broken.obj") {
		t.Errorf("expected broken.obj to be reported:\n%s", out)
	}
}
