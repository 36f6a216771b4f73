package imagegen

import (
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlaceholder_RendersValidPNG(t *testing.T) {
	dir := t.TempDir()
	p := NewPlaceholder(dir)

	for _, kind := range []Kind{KindCharacter, KindBackground, KindScene} {
		filename := p.Render("A tall knight with a silver shield and a kind smile.", kind)
		if filename == "" || filename == errorArtifactRef {
			t.Fatalf("kind %s: expected a rendered placeholder, got %q", kind, filename)
		}
		if !strings.HasPrefix(filename, kind.String()+"_placeholder_") {
			t.Errorf("kind %s: filename %q missing kind prefix", kind, filename)
		}

		f, err := os.Open(filepath.Join(dir, filename))
		if err != nil {
			t.Fatalf("open placeholder: %v", err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("kind %s: placeholder is not a valid PNG: %v", kind, err)
		}

		wantW, wantH := kind.Dimensions()
		if img.Bounds().Dx() != wantW || img.Bounds().Dy() != wantH {
			t.Errorf("kind %s: dimensions %dx%d, want %dx%d",
				kind, img.Bounds().Dx(), img.Bounds().Dy(), wantW, wantH)
		}
	}
}

func TestPlaceholder_EmptyDescription(t *testing.T) {
	p := NewPlaceholder(t.TempDir())
	if filename := p.Render("", KindCharacter); filename == "" {
		t.Error("Render must always return a reference, even for empty input")
	}
}

func TestPlaceholder_LongDescriptionWraps(t *testing.T) {
	p := NewPlaceholder(t.TempDir())
	long := strings.Repeat("a very long description of a character ", 40)
	if filename := p.Render(long, KindBackground); filename == "" || filename == errorArtifactRef {
		t.Errorf("long description should still render, got %q", filename)
	}
}

func TestPlaceholder_UnwritableDirReturnsErrorArtifact(t *testing.T) {
	p := NewPlaceholder(filepath.Join(string(os.PathSeparator), "proc", "no-such-dir"))
	filename := p.Render("description", KindCharacter)
	if filename != errorArtifactRef {
		t.Errorf("filename = %q, want error artifact reference when writes fail", filename)
	}
}
