package upload

import (
	"fmt"
	"path/filepath"

	"github.com/mfenderov/smart-organizer/internal/filetype"
	"github.com/mfenderov/smart-organizer/pkg/models"
	"github.com/spf13/afero"
)

// FromPath reads a file from fs and declares its MIME type from its content.
func FromPath(fs afero.Fs, path string) (models.UploadFile, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return models.UploadFile{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	name := filepath.Base(path)
	return models.UploadFile{
		Name:     name,
		MIMEType: filetype.ContentType(name, data),
		Data:     data,
	}, nil
}

// FromPaths reads every path in order.
func FromPaths(fs afero.Fs, paths []string) ([]models.UploadFile, error) {
	files := make([]models.UploadFile, 0, len(paths))
	for _, p := range paths {
		f, err := FromPath(fs, p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}
