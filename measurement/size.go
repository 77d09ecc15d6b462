package measurement

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// ArtifactSize returns the size in bytes of the file at path, or the total size of the regular
// files below it if path is a directory. Symbolic links inside a directory are neither followed
// nor counted; a link given as path itself is resolved first.
func ArtifactSize(path string) (int64, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return 0, NewInvalidSubjectError("path", path, err)
	}
	return ArtifactSizeFs(afero.NewOsFs(), resolved)
}

// ArtifactSizeFs is ArtifactSize on an arbitrary filesystem. path is not resolved.
func ArtifactSizeFs(fs afero.Fs, path string) (int64, error) {
	info, err := lstat(fs, path)
	if err != nil {
		return 0, NewInvalidSubjectError("path", path, err)
	}
	switch {
	case info.Mode().IsRegular():
		return info.Size(), nil
	case info.IsDir():
		return directorySize(fs, path)
	default:
		return 0, NewInvalidSubjectError("path", path, errors.Errorf("not a file or directory (%v)", info.Mode().Type()))
	}
}

func directorySize(fs afero.Fs, root string) (int64, error) {
	var total int64
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		// Walk reports links via lstat, so a linked directory is never descended into.
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrapf(err, "walking %s", root)
	}
	return total, nil
}

func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if lstater, ok := fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}
