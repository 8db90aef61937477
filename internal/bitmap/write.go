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

package bitmap

import (
	"bufio"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"
)

// Write a bitmap to a file. The suffix selects PNG, JPEG or TIFF
func (b *RGB) WriteToFile(fileName string, quality int) error {
	file, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	defer writer.Flush()

	return b.Write(writer, filepath.Ext(fileName), quality)
}

// Write a bitmap in the format given by the suffix
func (b *RGB) Write(writer io.Writer, suffix string, quality int) error {
	switch strings.ToLower(suffix) {
	case ".png":
		return b.WritePNG(writer)
	case ".jpg", ".jpeg":
		return b.WriteJPG(writer, quality)
	case ".tif", ".tiff":
		return b.WriteTIFF(writer)
	}
	return fmt.Errorf("unknown suffix '%s'", suffix)
}

// Write a bitmap to PNG
func (b *RGB) WritePNG(writer io.Writer) error {
	return png.Encode(writer, b.ToRGBA())
}

// Write a bitmap to JPG with the given quality
func (b *RGB) WriteJPG(writer io.Writer, quality int) error {
	return jpeg.Encode(writer, b.ToRGBA(), &jpeg.Options{Quality: quality})
}

// Write a bitmap to uncompressed TIFF
func (b *RGB) WriteTIFF(writer io.Writer) error {
	return tiff.Encode(writer, b.ToRGBA(), &tiff.Options{Compression: tiff.Uncompressed, Predictor: false})
}
