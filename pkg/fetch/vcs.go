package fetch

import (
	"os"
	"path/filepath"

	"github.com/tvansteenburgh/charm-tools/pkg/charm"
)

// settle gives a freshly fetched temporary directory its final name: the
// charm name from metadata.yaml when there is one, fallback otherwise. An
// existing directory with that name is an error, and tmp is removed.
func settle(tmp, fallback string) (string, error) {
	dest, err := charm.Rename(tmp)
	if err != nil {
		os.RemoveAll(tmp)
		return "", err
	}
	if dest != tmp {
		return dest, nil
	}

	dest, err = charm.MoveDir(tmp, filepath.Join(filepath.Dir(tmp), fallback))
	if err != nil {
		os.RemoveAll(tmp)
		return "", err
	}
	return dest, nil
}
