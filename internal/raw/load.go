// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package raw

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"golang.org/x/image/tiff"
)

// Loads a raw image from a 16-bit TIFF or PNG file. 8-bit files are accepted with rgbMax 255.
// Camera make and model are read from EXIF data if present.
func LoadFile(fileName string, logWriter io.Writer) (*Image, error) {
	file, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := Decode(bufio.NewReader(file), filepath.Ext(fileName))
	if err != nil {
		return nil, fmt.Errorf("error decoding %s: %w", fileName, err)
	}

	if _, err := file.Seek(0, io.SeekStart); err == nil {
		if x, err := exif.Decode(file); err == nil {
			img.Make, img.Model = exifString(x, exif.Make), exifString(x, exif.Model)
		}
	}
	fmt.Fprintf(logWriter, "Loaded %s raw image with rgbMax %d from %s %s %s\n",
		img.DimensionsToString(), img.RGBMax, fileName, img.Make, img.Model)
	return img, nil
}

func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// Decodes a raw image from the given reader. The suffix selects the format
func Decode(r io.Reader, suffix string) (*Image, error) {
	var src image.Image
	var err error
	switch strings.ToLower(suffix) {
	case ".tif", ".tiff":
		src, err = tiff.Decode(r)
	case ".png":
		src, err = png.Decode(r)
	default:
		return nil, fmt.Errorf("unknown suffix '%s'", suffix)
	}
	if err != nil {
		return nil, err
	}
	return FromImage(src)
}

// Converts a decoded image into a three channel raw image
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("empty image")
	}
	rgbMax := 0xFFFF
	shift := uint(0)
	switch src.(type) {
	case *image.RGBA, *image.NRGBA, *image.Gray, *image.YCbCr, *image.Paletted:
		rgbMax, shift = 0xFF, 8
	}

	img := NewImage(b.Dx(), b.Dy(), 3, rgbMax)
	img.ChanMul = [MaxColors]float64{1, 1, 1, 0}
	for y := 0; y < img.Height; y++ {
		row := img.Row(y)
		for x := range row {
			var p Pixel
			switch s := src.(type) {
			case *image.RGBA64:
				c := s.RGBA64At(b.Min.X+x, b.Min.Y+y)
				p = Pixel{c.R, c.G, c.B, 0}
			case *image.NRGBA64:
				c := s.NRGBA64At(b.Min.X+x, b.Min.Y+y)
				p = Pixel{c.R, c.G, c.B, 0}
			case *image.Gray16:
				g := s.Gray16At(b.Min.X+x, b.Min.Y+y).Y
				p = Pixel{g, g, g, 0}
			default:
				r, g, b2, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
				p = Pixel{uint16(r >> shift), uint16(g >> shift), uint16(b2 >> shift), 0}
			}
			row[x] = p
		}
	}
	return img, nil
}
