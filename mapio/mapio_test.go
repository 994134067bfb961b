package mapio

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"go.viam.com/test"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	test.That(t, os.WriteFile(path, []byte(content), 0o644), test.ShouldBeNil)
	return path
}

func TestParsePoseFormat(t *testing.T) {
	for name, want := range map[string]PoseFormat{
		"Standard":      PoseFormatStandard,
		"StandardNamed": PoseFormatStandardNamed,
		"COLMAP":        PoseFormatCOLMAP,
		"PIX4D":         PoseFormatPIX4D,
		"ROS":           PoseFormatROS,
	} {
		got, err := ParsePoseFormat(name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldEqual, want)
	}
	_, err := ParsePoseFormat("nope")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadStandardPoses(t *testing.T) {
	path := writeTempFile(t, "poses.txt", `# timestamp x y z qw qx qy qz
1403638525 1.5 -2.0 30.0 1 0 0 0

1403638526 2.5 -2.0 30.0 0 1 0 0
`)
	poses, names, err := LoadPoses(PoseFormatStandard, path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, names, test.ShouldBeNil)
	test.That(t, len(poses), test.ShouldEqual, 2)

	tr := poses[0].Translation()
	test.That(t, tr.X, test.ShouldAlmostEqual, 1.5)
	test.That(t, tr.Y, test.ShouldAlmostEqual, -2.0)
	test.That(t, tr.Z, test.ShouldAlmostEqual, 30.0)
	test.That(t, poses[0].Rotation().Real, test.ShouldAlmostEqual, 1)
	test.That(t, poses[1].Rotation().Imag, test.ShouldAlmostEqual, 1)
}

func TestLoadStandardNamedPoses(t *testing.T) {
	path := writeTempFile(t, "poses.txt", `img_000.jpg 0 0 30 1 0 0 0
img_001.jpg 1 0 30 1 0 0 0
`)
	poses, names, err := LoadPoses(PoseFormatStandardNamed, path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(poses), test.ShouldEqual, 2)
	test.That(t, names, test.ShouldResemble, []string{"img_000.jpg", "img_001.jpg"})
}

func TestLoadPosesMalformed(t *testing.T) {
	path := writeTempFile(t, "poses.txt", "1403638525 1.5 -2.0 30.0 1 0 0\n")
	_, _, err := LoadPoses(PoseFormatStandard, path)
	test.That(t, err, test.ShouldNotBeNil)

	path = writeTempFile(t, "poses2.txt", "1403638525 a b c 1 0 0 0\n")
	_, _, err = LoadPoses(PoseFormatStandard, path)
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = LoadPoses(PoseFormatStandard, filepath.Join(t.TempDir(), "missing.txt"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadPosesUnsupportedFormats(t *testing.T) {
	path := writeTempFile(t, "poses.txt", "")
	for _, format := range []PoseFormat{PoseFormatCOLMAP, PoseFormatPIX4D, PoseFormatROS} {
		_, _, err := LoadPoses(format, path)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func saveTestImage(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	test.That(t, imaging.Save(img, path), test.ShouldBeNil)
}

func TestLoadImagesByPrefix(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "frame_")
	saveTestImage(t, prefix+"0.png", color.NRGBA{R: 255, A: 255})
	saveTestImage(t, prefix+"1.png", color.NRGBA{G: 255, A: 255})

	images, err := LoadImages(prefix, 2, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(images), test.ShouldEqual, 2)

	_, err = LoadImages(prefix, 3, true)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestLoadImagesByNameGrayscale(t *testing.T) {
	dir := t.TempDir()
	saveTestImage(t, filepath.Join(dir, "a.png"), color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	images, err := LoadImagesByName(dir, []string{"a.png"}, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(images), test.ShouldEqual, 1)
	_, isGray := images[0].(*image.Gray)
	test.That(t, isGray, test.ShouldBeTrue)

	_, err = LoadImagesByName(dir, []string{"missing.png"}, false)
	test.That(t, err, test.ShouldNotBeNil)
}
