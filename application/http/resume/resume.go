// Package resume decides whether a download target already holds the body.
package resume

import (
	"io/fs"
	"os"

	"github.com/pkg/errors"
)

type State uint8

const (
	NotPresent State = iota
	Complete
	Partial
)

func (s State) String() string {
	switch s {
	case NotPresent:
		return "not present"
	case Complete:
		return "complete"
	case Partial:
		return "partial"
	}
	return "unknown"
}

// Classify compares the size of the file at path with expected.
func Classify(path string, expected int64) (State, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NotPresent, nil
		}
		return NotPresent, errors.Wrap(err, "checking existing file")
	}

	if info.IsDir() {
		return NotPresent, errors.Errorf("%s is a directory", path)
	}

	if info.Size() == expected {
		return Complete, nil
	}
	return Partial, nil
}
