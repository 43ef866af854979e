package app

import (
	"io"
	"net/textproto"
	"path"
	"sync"

	"github.com/kthxat/ferry/backends"
)

// fakeConn is an in-memory server session. Directory and file names are
// resolved against cwd the way a real server would.
type fakeConn struct {
	mu       sync.Mutex
	commands []string
	cwd      string
	dirs     map[string]bool
	files    map[string][]byte
	chunk    int

	user, password string
	closed         bool

	loginErr    error
	cwdErr      error
	mkdirErr    error
	storeErr    error
	retrieveErr error
	closeErr    error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		cwd:   "/",
		dirs:  map[string]bool{"/": true},
		files: map[string][]byte{},
		chunk: 4,
	}
}

func denied(msg string) error {
	return &textproto.Error{Code: 550, Msg: msg}
}

func (c *fakeConn) record(cmd string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, cmd)
}

func (c *fakeConn) abs(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(c.cwd, p)
}

func (c *fakeConn) Close() error {
	c.record("QUIT")
	c.closed = true
	return c.closeErr
}

func (c *fakeConn) Login(username, password string) error {
	c.record("LOGIN")
	c.user, c.password = username, password
	return c.loginErr
}

func (c *fakeConn) CurrentDir() (string, error) {
	c.record("PWD")
	return c.cwd, nil
}

func (c *fakeConn) ChangeDir(p string) error {
	c.record("CWD " + p)
	if c.cwdErr != nil {
		return c.cwdErr
	}
	if !c.dirs[c.abs(p)] {
		return denied(p + ": No such file or directory")
	}
	c.cwd = c.abs(p)
	return nil
}

func (c *fakeConn) MakeDir(p string) error {
	c.record("MKD " + p)
	if c.mkdirErr != nil {
		return c.mkdirErr
	}
	c.dirs[c.abs(p)] = true
	return nil
}

func (c *fakeConn) Store(p string, src io.Reader) error {
	c.record("STOR " + p)
	if c.storeErr != nil {
		return c.storeErr
	}
	var data []byte
	buf := make([]byte, c.chunk)
	for {
		n, err := src.Read(buf)
		data = append(data, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}
	c.files[c.abs(p)] = data
	return nil
}

func (c *fakeConn) Retrieve(p string, dest io.Writer) error {
	c.record("RETR " + p)
	if c.retrieveErr != nil {
		return c.retrieveErr
	}
	data, ok := c.files[c.abs(p)]
	if !ok {
		return denied(p + ": No such file or directory")
	}
	for len(data) > 0 {
		n := c.chunk
		if n > len(data) {
			n = len(data)
		}
		if _, err := dest.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (c *fakeConn) sent(prefix string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cmd := range c.commands {
		if len(cmd) >= len(prefix) && cmd[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// fakeBackends hands out one connection per dial and remembers the
// construction parameters.
type fakeBackends struct {
	mu      sync.Mutex
	conn    *fakeConn
	newConn func() *fakeConn
	dialErr error
	dialed  []*backends.BackendConstructionParams
}

func (f *fakeBackends) resolve(id string) *backends.BackendDescriptor {
	switch id {
	case "ftp", "ftps":
	default:
		return nil
	}
	return &backends.BackendDescriptor{
		ID:     id,
		Secure: id == "ftps",
		Dial: func(params *backends.BackendConstructionParams) (backends.Conn, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.dialed = append(f.dialed, params)
			if f.dialErr != nil {
				return nil, f.dialErr
			}
			if f.newConn != nil {
				return f.newConn(), nil
			}
			return f.conn, nil
		},
	}
}

func (f *fakeBackends) dialCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dialed)
}
