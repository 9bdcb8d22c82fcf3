package utils

import (
	"os"
	"path/filepath"
)

/*
ReplaceFile
write data to a temp file beside path, fsync it, then rename over path.
Readers see either the old content or the new one, never a truncated file.
*/
func ReplaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	done := false
	defer func() {
		if !done {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		done = true
		return err
	}
	done = true
	return nil
}

func EnsureDir(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

func ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func ReadJsonFile(path string, obj interface{}) error {
	data, err := ReadFile(path)
	if err != nil {
		return err
	}
	return Unmarshal(data, obj, JsonNumDefault)
}
