package render

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/lmittmann/ppm"
	"github.com/lucasb-eyer/go-colorful"
	"go.viam.com/test"

	"go.viam.com/chartscene/scene"
)

func testCamera() *scene.OrthographicCamera {
	cam := scene.NewOrthographicCamera(-200, 200, 200, -200, 1, 1500)
	cam.SetPosition(r3.Vector{Z: 500})
	cam.LookAt(r3.Vector{})
	return cam
}

func pixel(t *testing.T, r *ImageRenderer, x, y int) color.RGBA {
	t.Helper()
	img := r.Snapshot()
	test.That(t, img, test.ShouldNotBeNil)
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestImageRendererSettings(t *testing.T) {
	r := NewImageRenderer(true)
	test.That(t, r.Antialias(), test.ShouldBeTrue)
	test.That(t, r.Render(scene.NewScene(), testCamera()), test.ShouldBeError, ErrNoSize)

	err := r.SetSize(0, 10)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "0x10")

	test.That(t, r.SetSize(100, 50), test.ShouldBeNil)
	w, h := r.Size()
	test.That(t, w, test.ShouldEqual, 100)
	test.That(t, h, test.ShouldEqual, 50)

	r.SetPixelRatio(-3)
	test.That(t, r.PixelRatio(), test.ShouldEqual, 1.0)
	r.SetPixelRatio(2)
	test.That(t, r.PixelRatio(), test.ShouldEqual, 2.0)

	test.That(t, r.SetClearColor("not a color"), test.ShouldNotBeNil)
	test.That(t, r.SetClearColor("#040D21"), test.ShouldBeNil)
	test.That(t, r.ClearColor(), test.ShouldEqual, "#040d21")
}

func TestRenderClearAndPixelRatio(t *testing.T) {
	r := NewImageRenderer(true)
	test.That(t, r.SetSize(4, 3), test.ShouldBeNil)
	r.SetPixelRatio(2)
	test.That(t, r.SetClearColor("#040D21"), test.ShouldBeNil)
	test.That(t, r.Snapshot(), test.ShouldBeNil)

	test.That(t, r.Render(scene.NewScene(), testCamera()), test.ShouldBeNil)
	test.That(t, r.Frames(), test.ShouldEqual, 1)
	bounds := r.Snapshot().Bounds()
	test.That(t, bounds.Dx(), test.ShouldEqual, 8)
	test.That(t, bounds.Dy(), test.ShouldEqual, 6)

	clear, err := colorful.Hex("#040D21")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pixel(t, r, 3, 3), test.ShouldResemble, color.RGBAModel.Convert(clear).(color.RGBA))
}

func TestRenderSkipsHiddenNodes(t *testing.T) {
	r := NewImageRenderer(true)
	test.That(t, r.SetSize(100, 100), test.ShouldBeNil)
	s := scene.NewScene()
	sphere := scene.NewMesh("sphere", scene.ShapeSphere, "#ff0000")
	sphere.Radius = 100
	s.Add(sphere)

	test.That(t, r.Render(s, testCamera()), test.ShouldBeNil)
	lit := pixel(t, r, 50, 50)
	test.That(t, lit.R, test.ShouldBeGreaterThan, lit.G)
	test.That(t, pixel(t, r, 2, 2), test.ShouldResemble, color.RGBA{A: 255})

	sphere.SetVisible(false)
	test.That(t, r.Render(s, testCamera()), test.ShouldBeNil)
	test.That(t, pixel(t, r, 50, 50), test.ShouldResemble, color.RGBA{A: 255})
	test.That(t, r.Frames(), test.ShouldEqual, 2)
}

func TestRenderLightsBrighten(t *testing.T) {
	dark := NewImageRenderer(true)
	test.That(t, dark.SetSize(50, 50), test.ShouldBeNil)
	s := scene.NewScene()
	sphere := scene.NewMesh("sphere", scene.ShapeSphere, "#ffffff")
	sphere.Radius = 100
	s.Add(sphere)
	test.That(t, dark.Render(s, testCamera()), test.ShouldBeNil)

	s.Add(scene.NewDirectionalLight("#fff", 1, r3.Vector{X: 2000, Y: 2000, Z: 3000}))
	lit := NewImageRenderer(true)
	test.That(t, lit.SetSize(50, 50), test.ShouldBeNil)
	test.That(t, lit.Render(s, testCamera()), test.ShouldBeNil)

	test.That(t, pixel(t, lit, 25, 25).R, test.ShouldBeGreaterThan, pixel(t, dark, 25, 25).R)
}

func TestWritePNG(t *testing.T) {
	r := NewImageRenderer(true)
	path := filepath.Join(t.TempDir(), "frame.png")
	test.That(t, r.WritePNG(path), test.ShouldNotBeNil)

	test.That(t, r.SetSize(10, 10), test.ShouldBeNil)
	s := scene.NewScene()
	s.Add(scene.NewLabel("label", "hi", "#ffffff", 8))
	test.That(t, r.Render(s, testCamera()), test.ShouldBeNil)
	test.That(t, r.WritePNG(path), test.ShouldBeNil)
	info, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)
}

func TestWriteImage(t *testing.T) {
	r := NewImageRenderer(false)
	dir := t.TempDir()
	test.That(t, r.WriteImage(filepath.Join(dir, "frame.ppm")), test.ShouldNotBeNil)

	test.That(t, r.SetSize(6, 4), test.ShouldBeNil)
	test.That(t, r.Render(scene.NewScene(), testCamera()), test.ShouldBeNil)

	err := r.WriteImage(filepath.Join(dir, "frame.gif"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported image format")

	path := filepath.Join(dir, "frame.ppm")
	test.That(t, r.WriteImage(path), test.ShouldBeNil)
	f, err := os.Open(path)
	test.That(t, err, test.ShouldBeNil)
	defer f.Close()
	img, err := ppm.Decode(f)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Bounds().Dx(), test.ShouldEqual, 6)
	test.That(t, img.Bounds().Dy(), test.ShouldEqual, 4)

	test.That(t, r.WriteImage(filepath.Join(dir, "frame.PNG")), test.ShouldBeNil)
}

func TestLightLevel(t *testing.T) {
	test.That(t, lightLevel(nil), test.ShouldAlmostEqual, 0.35)
	lights := []scene.Light{
		scene.NewAmbientLight("#fff", 1),
		scene.NewDirectionalLight("#fff", 1, r3.Vector{}),
	}
	test.That(t, lightLevel(lights), test.ShouldEqual, 1.0)
}
