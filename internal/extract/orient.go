package extract

import (
	"image"

	exif "github.com/dsoprea/go-exif/v3"
	"golang.org/x/image/draw"
)

// exifOrientation returns the EXIF Orientation tag of an image (1-8), or 0
// when the image carries no EXIF block or no orientation.
func exifOrientation(data []byte) int {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		return 0
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return 0
	}

	for _, entry := range entries {
		if entry.TagName != "Orientation" {
			continue
		}
		if v, ok := entry.Value.([]uint16); ok && len(v) > 0 && v[0] >= 1 && v[0] <= 8 {
			return int(v[0])
		}
	}
	return 0
}

// applyOrientation returns img transformed so that it displays upright.
// Orientation values follow the EXIF specification:
//
//	1 normal          2 mirrored
//	3 rotated 180     4 flipped vertically
//	5 transposed      6 rotated 90 CW
//	7 transversed     8 rotated 90 CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	if orientation < 2 || orientation > 8 {
		return img
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	src := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(src, src.Bounds(), img, b.Min, draw.Src)

	dw, dh := w, h
	if orientation >= 5 {
		dw, dh = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))

	for y := range h {
		for x := range w {
			var dx, dy int
			switch orientation {
			case 2:
				dx, dy = w-1-x, y
			case 3:
				dx, dy = w-1-x, h-1-y
			case 4:
				dx, dy = x, h-1-y
			case 5:
				dx, dy = y, x
			case 6:
				dx, dy = h-1-y, x
			case 7:
				dx, dy = h-1-y, w-1-x
			case 8:
				dx, dy = y, w-1-x
			}
			dst.SetRGBA(dx, dy, src.RGBAAt(x, y))
		}
	}
	return dst
}
