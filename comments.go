package marginalia

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// commentsFile is the on-disk layout used by the CLI.
type commentsFile struct {
	Comments []Comment `yaml:"comments"`
}

// LoadComments reads a YAML comments file. Comments keep their file order, which is
// taken as creation order.
func LoadComments(path string) ([]Comment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read comments: %w", err)
	}
	return ParseComments(data)
}

// ParseComments decodes a YAML comments document.
func ParseComments(data []byte) ([]Comment, error) {
	var f commentsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return f.Comments, nil
}

// SaveComments writes comments as YAML, replacing path.
func SaveComments(path string, comments []Comment) error {
	data, err := yaml.Marshal(commentsFile{Comments: comments})
	if err != nil {
		return fmt.Errorf("encode comments: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write comments: %w", err)
	}
	return nil
}
