package app

import "io"

// UploadProgress is invoked once for every chunk sent to the server.
func UploadProgress(logger Logger, n int) {
	logger.Debugf("Uploaded block size: %d bytes", n)
}

// DownloadProgress is invoked once for every chunk received from the server.
func DownloadProgress(logger Logger, n int) {
	logger.Debugf("Downloaded block size: %d bytes", n)
}

type progressReader struct {
	io.Reader
	callback func(n int)
	total    int64
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if n > 0 {
		r.total += int64(n)
		r.callback(n)
	}
	return n, err
}

type progressWriter struct {
	io.Writer
	callback func(n int)
	total    int64
}

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.Writer.Write(p)
	if n > 0 {
		w.total += int64(n)
		w.callback(n)
	}
	return n, err
}
