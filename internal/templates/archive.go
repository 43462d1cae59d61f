package templates

import (
	"archive/tar"
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/GriffinCanCode/sandpad/internal/shared/types"
)

// ArchiveFormat is a file set export format
type ArchiveFormat string

const (
	ArchiveZip    ArchiveFormat = "zip"
	ArchiveTarGz  ArchiveFormat = "tar.gz"
	ArchiveTarZst ArchiveFormat = "tar.zst"
)

// ParseArchiveFormat validates s. The empty string selects zip.
func ParseArchiveFormat(s string) (ArchiveFormat, error) {
	switch f := ArchiveFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ArchiveZip, nil
	case ArchiveZip, ArchiveTarGz, ArchiveTarZst:
		return f, nil
	}
	return "", fmt.Errorf("%w: archive %q", ErrUnsupportedFormat, s)
}

// ContentType returns the MIME type of the format
func (f ArchiveFormat) ContentType() string {
	switch f {
	case ArchiveTarGz:
		return "application/gzip"
	case ArchiveTarZst:
		return "application/zstd"
	default:
		return "application/zip"
	}
}

// Extension returns the file name extension including the dot
func (f ArchiveFormat) Extension() string {
	return "." + string(f)
}

// WriteArchive writes files to w under the directory root
func WriteArchive(w io.Writer, format ArchiveFormat, root string, files []types.File, modTime time.Time) error {
	if modTime.IsZero() {
		modTime = time.Now()
	}

	switch format {
	case ArchiveZip:
		return writeZip(w, root, files, modTime)
	case ArchiveTarGz:
		gzWriter := gzip.NewWriter(w)
		if err := writeTar(gzWriter, root, files, modTime); err != nil {
			gzWriter.Close()
			return err
		}
		return gzWriter.Close()
	case ArchiveTarZst:
		zstdWriter, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("zstd writer: %w", err)
		}
		if err := writeTar(zstdWriter, root, files, modTime); err != nil {
			zstdWriter.Close()
			return err
		}
		return zstdWriter.Close()
	}
	return fmt.Errorf("%w: archive %q", ErrUnsupportedFormat, format)
}

func writeZip(w io.Writer, root string, files []types.File, modTime time.Time) error {
	zipWriter := zip.NewWriter(w)
	for _, f := range files {
		header := &zip.FileHeader{
			Name:     archiveName(root, f.Path),
			Method:   zip.Deflate,
			Modified: modTime,
		}
		fw, err := zipWriter.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("zip %s: %w", f.Path, err)
		}
		if _, err := io.WriteString(fw, f.Content); err != nil {
			return fmt.Errorf("zip %s: %w", f.Path, err)
		}
	}
	return zipWriter.Close()
}

func writeTar(w io.Writer, root string, files []types.File, modTime time.Time) error {
	tarWriter := tar.NewWriter(w)
	for _, f := range files {
		header := &tar.Header{
			Typeflag: tar.TypeReg,
			Name:     archiveName(root, f.Path),
			Mode:     0o644,
			Size:     int64(len(f.Content)),
			ModTime:  modTime,
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			return fmt.Errorf("tar %s: %w", f.Path, err)
		}
		if _, err := io.WriteString(tarWriter, f.Content); err != nil {
			return fmt.Errorf("tar %s: %w", f.Path, err)
		}
	}
	return tarWriter.Close()
}

func archiveName(root, p string) string {
	p = strings.TrimPrefix(p, "/")
	if root == "" {
		return p
	}
	return path.Join(root, p)
}
