package backends

import (
	"io"
)

type Backend interface {
	// Close terminates the session with the server. Implementations send a
	// polite goodbye first and release the underlying connection even if the
	// server does not answer.
	Close() error
}

// Conn is a single, unshared session with a file transfer server.
type Conn interface {
	Backend

	// Login authenticates the session. An empty user is never passed here;
	// callers substitute anonymous credentials themselves.
	Login(username, password string) error

	// CurrentDir returns the server-side working directory.
	CurrentDir() (string, error)

	// ChangeDir changes the server-side working directory.
	ChangeDir(path string) error

	// MakeDir creates a directory on the server.
	MakeDir(path string) error

	// Store uploads the contents of src to path in binary mode.
	Store(path string, src io.Reader) error

	// Retrieve downloads path in binary mode and writes its contents to the
	// destination writer.
	Retrieve(path string, dest io.Writer) error
}
