package mapio

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/airmapio/aerialmapper/rimage"
)

// LoadImages loads count images named <prefix><index>.<ext> for indices
// 0..count-1, trying the known extensions in order. Colored output keeps the
// images as loaded; otherwise they are converted to grayscale.
func LoadImages(prefix string, count int, colored bool) ([]image.Image, error) {
	images := make([]image.Image, 0, count)
	for i := 0; i < count; i++ {
		img, err := openWithAnyExtension(prefix, i)
		if err != nil {
			return nil, errors.Wrapf(err, "image %d", i)
		}
		images = append(images, prepare(img, colored))
	}
	return images, nil
}

// LoadImagesByName loads the named images relative to a base directory, in
// the given order.
func LoadImagesByName(base string, names []string, colored bool) ([]image.Image, error) {
	images := make([]image.Image, 0, len(names))
	for _, name := range names {
		img, err := imaging.Open(filepath.Join(base, name))
		if err != nil {
			return nil, errors.Wrapf(err, "image %q", name)
		}
		images = append(images, prepare(img, colored))
	}
	return images, nil
}

var imageExtensions = []string{"jpg", "jpeg", "png", "tif", "tiff", "bmp"}

func openWithAnyExtension(prefix string, index int) (image.Image, error) {
	var lastErr error
	for _, ext := range imageExtensions {
		img, err := imaging.Open(fmt.Sprintf("%s%d.%s", prefix, index, ext))
		if err == nil {
			return img, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func prepare(img image.Image, colored bool) image.Image {
	if colored {
		return img
	}
	return rimage.ToGray(img)
}
