package storage

import (
	"io"
	"mime/multipart"
	"path/filepath"
)

// SaveUpload reads a multipart file and stores it under dir, keeping the
// original extension.
func SaveUpload(s Store, dir string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}
	return s.Save(dir, filepath.Ext(fh.Filename), data)
}
