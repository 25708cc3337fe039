package filelist

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode"
)

// IsArchiveExt reports whether the path looks like a supported archive.
func IsArchiveExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip", ".rar", ".7z":
		return true
	default:
		return false
	}
}

// expandArchive lists the image entries of an archive as browsable items.
// Archive readers need a real on-disk file, so this path bypasses afero.
func expandArchive(archivePath string, supported func(string) bool) ([]ImagePath, error) {
	switch strings.ToLower(filepath.Ext(archivePath)) {
	case ".zip":
		return expandZip(archivePath, supported)
	case ".rar":
		return expandRar(archivePath, supported)
	case ".7z":
		return expand7z(archivePath, supported)
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", archivePath)
	}
}

func entryItem(archivePath, entryPath string) ImagePath {
	return ImagePath{
		Path:        archivePath + ":" + entryPath,
		ArchivePath: archivePath,
		EntryPath:   entryPath,
	}
}

func expandZip(archivePath string, supported func(string) bool) ([]ImagePath, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var images []ImagePath
	for _, f := range r.File {
		if !f.FileInfo().IsDir() && supported(f.Name) {
			images = append(images, entryItem(archivePath, f.Name))
		}
	}
	return images, nil
}

func expandRar(archivePath string, supported func(string) bool) ([]ImagePath, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := rardecode.NewReader(f, "")
	if err != nil {
		return nil, err
	}

	var images []ImagePath
	for {
		header, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !header.IsDir && supported(header.Name) {
			images = append(images, entryItem(archivePath, header.Name))
		}
	}
	return images, nil
}

func expand7z(archivePath string, supported func(string) bool) ([]ImagePath, error) {
	r, err := sevenzip.OpenReader(archivePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var images []ImagePath
	for _, f := range r.File {
		if !f.FileInfo().IsDir() && supported(f.Name) {
			images = append(images, entryItem(archivePath, f.Name))
		}
	}
	return images, nil
}
