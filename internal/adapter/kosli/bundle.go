package kosli

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// Bundle returns the single file to upload for files. One file is uploaded
// as is; several are packed into a tar.gz next to the first one. cleanup
// removes anything Bundle created.
func Bundle(name string, files []string) (path string, cleanup func(), err error) {
	noop := func() {}
	switch len(files) {
	case 0:
		return "", noop, fmt.Errorf("no evidence files")
	case 1:
		if _, err := os.Stat(files[0]); err != nil {
			return "", noop, err
		}
		return files[0], noop, nil
	}

	out := filepath.Join(filepath.Dir(files[0]), name+".tgz")
	f, err := os.OpenFile(out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return "", noop, fmt.Errorf("create bundle: %w", err)
	}
	cleanup = func() { os.Remove(out) }

	if err := writeTarGz(f, files); err != nil {
		f.Close()
		cleanup()
		return "", noop, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", noop, err
	}
	return out, cleanup, nil
}

func writeTarGz(w io.Writer, files []string) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)
	for _, p := range files {
		if err := addFile(tw, p); err != nil {
			return fmt.Errorf("add %s to bundle: %w", p, err)
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func addFile(tw *tar.Writer, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(p)
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
