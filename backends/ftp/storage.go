package backend_ftp

import (
	"io"

	"github.com/pkg/errors"
)

func (b *FTPBackend) CurrentDir() (dir string, err error) {
	dir, err = b.conn.CurrentDir()
	return
}

func (b *FTPBackend) ChangeDir(path string) (err error) {
	err = b.conn.ChangeDir(path)
	return
}

func (b *FTPBackend) MakeDir(path string) (err error) {
	err = b.conn.MakeDir(path)
	return
}

func (b *FTPBackend) Store(path string, r io.Reader) (err error) {
	err = b.conn.Stor(path, r)
	return
}

func (b *FTPBackend) Retrieve(path string, w io.Writer) (err error) {
	resp, err := b.conn.Retr(path)
	if err != nil {
		return
	}
	defer func() {
		// Close reads the final transfer status from the control channel.
		if closeErr := resp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(w, resp); err != nil {
		err = errors.Wrapf(err, "reading %s", path)
	}
	return
}
