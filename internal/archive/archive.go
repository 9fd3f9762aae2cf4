// Package archive handles the zip plumbing around a conversion run:
// extracting the uploaded archive and building the converted one.
package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apimorph/pmconv/internal/domain"
)

// Extract unpacks a zip archive into destDir. Entries that would
// escape destDir are rejected.
func Extract(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return domain.NewError("scan", zipPath, 0, "failed to open archive", err)
	}
	defer r.Close()

	for _, f := range r.File {
		if err := extractFile(f, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, destDir string) error {
	dest := filepath.Join(destDir, filepath.Clean(f.Name))
	if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return domain.NewError("scan", f.Name, 0, "archive entry escapes the extraction directory", nil)
	}

	if f.FileInfo().IsDir() {
		return os.MkdirAll(dest, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return domain.NewError("scan", f.Name, 0, "failed to create extraction directory", err)
	}

	src, err := f.Open()
	if err != nil {
		return domain.NewError("scan", f.Name, 0, "failed to read archive entry", err)
	}
	defer src.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return domain.NewError("scan", f.Name, 0, "failed to create extracted file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return domain.NewError("scan", f.Name, 0, "failed to extract archive entry", err)
	}
	return nil
}

// Build writes the named files into a new zip archive at outPath,
// in sorted name order.
func Build(outPath string, files map[string][]byte) error {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	out, err := os.Create(outPath)
	if err != nil {
		return domain.NewError("write", outPath, 0, "failed to create output archive", err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	for _, name := range names {
		entry, err := w.Create(name)
		if err != nil {
			w.Close()
			return domain.NewError("write", name, 0, "failed to add archive entry", err)
		}
		if _, err := entry.Write(files[name]); err != nil {
			w.Close()
			return domain.NewError("write", name, 0, "failed to write archive entry", err)
		}
	}

	if err := w.Close(); err != nil {
		return domain.NewError("write", outPath, 0, "failed to finish output archive", err)
	}
	return nil
}
