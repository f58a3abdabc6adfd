package extract

import (
	"archive/zip"
	"fmt"
	"io"
)

// openZipPart opens a named part from an OOXML archive.
func openZipPart(zr *zip.Reader, name string) (io.ReadCloser, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("archive part %q not found", name)
}

// hasZipPart reports whether the archive contains a named part.
func hasZipPart(zr *zip.Reader, name string) bool {
	for _, f := range zr.File {
		if f.Name == name {
			return true
		}
	}
	return false
}
