package render

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

//go:embed templates/post.html
var fallbackTemplate string

func FallbackTemplate() string {
	return fallbackTemplate
}

// LoadTemplate reads the page template. A missing file is not an error: the
// built-in template is returned with fromFile set to false.
func LoadTemplate(path string) (tmpl string, fromFile bool, err error) {
	if path == "" {
		return fallbackTemplate, false, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fallbackTemplate, false, nil
		}
		return "", false, fmt.Errorf("failed to read template %s: %w", path, err)
	}

	return string(data), true, nil
}
