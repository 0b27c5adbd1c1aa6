package cover

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

func makeSolidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func mustEncodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func mustEncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func decodeConfig(t *testing.T, data []byte) (image.Config, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig() error = %v", err)
	}
	return cfg, format
}

func TestStore_WritePassthrough(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, Options{MaxWidth: 600})

	data := mustEncodeJPEG(t, makeSolidNRGBA(300, 400, color.NRGBA{R: 200, A: 255}))
	p, err := store.Write(42, data, ".jpg")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if p != "42.jpg" {
		t.Errorf("Write() path = %q, want %q", p, "42.jpg")
	}

	stored, err := store.Read(p)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Error("cover under the max width should be stored unchanged")
	}
}

func TestStore_WriteResizesWideCover(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), Options{MaxWidth: 600})

	data := mustEncodeJPEG(t, makeSolidNRGBA(1200, 1600, color.NRGBA{G: 200, A: 255}))
	p, err := store.Write(1, data, ".jpg")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	stored, _ := store.Read(p)
	cfg, format := decodeConfig(t, stored)
	if cfg.Width != 600 || cfg.Height != 800 {
		t.Errorf("got %dx%d, want 600x800", cfg.Width, cfg.Height)
	}
	if format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
}

func TestStore_WriteKeepsPNG(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), Options{MaxWidth: 100})

	data := mustEncodePNG(t, makeSolidNRGBA(400, 200, color.NRGBA{B: 200, A: 120}))
	p, err := store.Write(2, data, ".png")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if p != "2.png" {
		t.Errorf("Write() path = %q, want %q", p, "2.png")
	}

	stored, _ := store.Read(p)
	cfg, format := decodeConfig(t, stored)
	if format != "png" || cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("got %s %dx%d, want png 100x50", format, cfg.Width, cfg.Height)
	}
}

func TestStore_WritePNGAsJPEG(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), Options{MaxWidth: 100})

	data := mustEncodePNG(t, makeSolidNRGBA(400, 200, color.NRGBA{R: 10, A: 255}))
	p, err := store.Write(3, data, ".jpg")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	stored, _ := store.Read(p)
	if _, format := decodeConfig(t, stored); format != "jpeg" {
		t.Errorf("format = %q, want jpeg", format)
	}
}

func TestStore_WriteNoResizeWhenDisabled(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), Options{})

	data := mustEncodeJPEG(t, makeSolidNRGBA(2000, 100, color.NRGBA{A: 255}))
	p, err := store.Write(4, data, ".jpg")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	stored, _ := store.Read(p)
	if !bytes.Equal(stored, data) {
		t.Error("cover should be stored unchanged when resizing is disabled")
	}
}

func TestStore_WriteRejectsNonImage(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, Options{})

	_, err := store.Write(5, []byte("<html><body>not a picture</body></html>"), ".jpg")
	if !errors.Is(err, ErrNotImage) {
		t.Fatalf("Write() error = %v, want ErrNotImage", err)
	}
	if exists, _ := afero.Exists(fs, "5.jpg"); exists {
		t.Error("nothing should be written for a rejected cover")
	}
}

func TestStore_WriteUndecodableImageKeptAsIs(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), Options{MaxWidth: 10})

	// A PNG signature without any valid chunk sniffs as an image but does not decode.
	data := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	p, err := store.Write(6, data, ".png")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	stored, _ := store.Read(p)
	if !bytes.Equal(stored, data) {
		t.Error("undecodable cover should be stored unchanged")
	}
}

func TestStore_WriteFailure(t *testing.T) {
	store := NewStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), Options{})

	data := mustEncodeJPEG(t, makeSolidNRGBA(10, 10, color.NRGBA{A: 255}))
	if _, err := store.Write(7, data, ".jpg"); err == nil {
		t.Fatal("Write() on a read-only filesystem should fail")
	}
}

func TestStore_Remove(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, Options{})

	data := mustEncodeJPEG(t, makeSolidNRGBA(10, 10, color.NRGBA{A: 255}))
	p, _ := store.Write(8, data, ".jpg")

	if err := store.Remove(p); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if exists, _ := afero.Exists(fs, p); exists {
		t.Error("cover should be removed")
	}
	if err := store.Remove(p); err != nil {
		t.Errorf("Remove() of a missing cover error = %v", err)
	}
	if err := store.Remove(""); err != nil {
		t.Errorf("Remove(\"\") error = %v", err)
	}
}

func TestNewDirStore(t *testing.T) {
	dir := t.TempDir() + "/covers"
	store, err := NewDirStore(dir, Options{})
	if err != nil {
		t.Fatalf("NewDirStore() error = %v", err)
	}

	data := mustEncodeJPEG(t, makeSolidNRGBA(10, 10, color.NRGBA{A: 255}))
	p, err := store.Write(9, data, ".jpg")
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if exists, _ := afero.Exists(afero.NewOsFs(), dir+"/"+p); !exists {
		t.Errorf("cover not found under %s", dir)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(12, ".png"); got != "12.png" {
		t.Errorf("FileName() = %q, want %q", got, "12.png")
	}
	if got := FileName(12, ""); got != "12.jpg" {
		t.Errorf("FileName() = %q, want %q", got, "12.jpg")
	}
}
