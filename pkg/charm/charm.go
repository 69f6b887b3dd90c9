package charm

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

const metadataFileName = "metadata.yaml"

// ErrExists is matched by every *ExistsError.
var ErrExists = errors.New("destination already exists")

// ExistsError reports a move that would land on an existing path.
type ExistsError struct {
	Src  string
	Path string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("moving %s: %s: %v", e.Src, e.Path, ErrExists)
}

func (e *ExistsError) Is(target error) bool {
	return target == ErrExists
}

// Metadata is the subset of a charm's metadata.yaml that pull-source cares
// about.
type Metadata struct {
	Name string `json:"name"`
}

// LoadMetadata reads metadata.yaml from dir. The returned error wraps
// fs.ErrNotExist when dir is not a charm.
func LoadMetadata(dir string) (*Metadata, error) {
	path := filepath.Join(dir, metadataFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	md := &Metadata{}
	if err := yaml.Unmarshal(data, md); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return md, nil
}

// Rename moves dir next to itself under the name declared in its
// metadata.yaml and returns the new path. Directories without a usable
// metadata.yaml are returned unchanged. If the named directory already
// exists the error is an *ExistsError and dir is left where it is.
func Rename(dir string) (string, error) {
	md, err := LoadMetadata(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return dir, nil
		}
		return "", err
	}
	if md.Name == "" {
		return dir, nil
	}

	newDir := filepath.Join(filepath.Dir(dir), md.Name)
	if newDir == dir {
		return dir, nil
	}
	return MoveDir(dir, newDir)
}

// MoveDir renames src to dst. It never replaces or merges into an existing
// dst: that case returns an *ExistsError.
func MoveDir(src, dst string) (string, error) {
	if _, err := os.Lstat(dst); err == nil {
		return "", &ExistsError{Src: src, Path: dst}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("checking %s: %w", dst, err)
	}

	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("moving %s to %s: %w", src, dst, err)
	}
	return dst, nil
}
