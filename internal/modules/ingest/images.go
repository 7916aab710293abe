package ingest

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const imagesSubdir = "images"

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// extractImages copies figure files out of a source tarball into an images/
// subdirectory of paperDir and returns their base names. Any failure,
// including a non-gzip payload, yields an empty list.
func extractImages(archivePath, paperDir string) []string {
	names, err := extractImagesErr(archivePath, paperDir)
	if err != nil {
		return nil
	}
	return names
}

func extractImagesErr(archivePath, paperDir string) ([]string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	imagesDir := filepath.Join(paperDir, imagesSubdir)
	tr := tar.NewReader(gz)

	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		base := filepath.Base(hdr.Name)
		if !imageExtensions[strings.ToLower(filepath.Ext(base))] {
			continue
		}
		if err := os.MkdirAll(imagesDir, 0o755); err != nil {
			return nil, err
		}
		// Only the base name is used, so archive paths can never escape
		// the images directory.
		if err := copyTarEntry(tr, filepath.Join(imagesDir, base)); err != nil {
			return nil, err
		}
		names = append(names, base)
	}
	return names, nil
}

func copyTarEntry(r io.Reader, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
