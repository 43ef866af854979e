package backend_ftp

import (
	"context"
	"crypto/tls"
	"reflect"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/pkg/errors"

	"github.com/kthxat/ferry/backends"
)

type FTPBackendConfiguration struct {
	Timeout            time.Duration
	DisableEPSV        bool
	DisableUTF8        bool
	ServerLocation     string
	InsecureSkipVerify bool
	TLSServerName      string
}

func readConfiguration(params *backends.BackendConstructionParams) (config *FTPBackendConfiguration, err error) {
	config = new(FTPBackendConfiguration)
	if params.Config == nil {
		return
	}
	err = params.Config.Unmarshal(config)
	return
}

func (c *FTPBackendConfiguration) makeTLSConfig(host string) *tls.Config {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: c.InsecureSkipVerify,
	}
	if !c.InsecureSkipVerify {
		if len(c.TLSServerName) > 0 {
			tlsConfig.ServerName = c.TLSServerName
		} else {
			tlsConfig.ServerName = host
		}
	}
	return tlsConfig
}

func (c *FTPBackendConfiguration) makeDialOptions(ctx context.Context, host string, secure bool) (options []ftp.DialOption, err error) {
	options = []ftp.DialOption{
		ftp.DialWithDisabledEPSV(c.DisableEPSV),
		ftp.DialWithDisabledUTF8(c.DisableUTF8),
	}
	if ctx != nil {
		options = append(options, ftp.DialWithContext(ctx))
	}
	if c.Timeout > 0 {
		options = append(options, ftp.DialWithTimeout(c.Timeout))
	}
	if len(c.ServerLocation) > 0 {
		var location *time.Location
		location, err = time.LoadLocation(c.ServerLocation)
		if err != nil {
			return
		}
		options = append(options, ftp.DialWithLocation(location))
	}
	if secure {
		// AUTH TLS right after the greeting; PBSZ 0 and PROT P follow on login.
		options = append(options, ftp.DialWithExplicitTLS(c.makeTLSConfig(host)))
	}
	return
}

func newDialFunc(secure bool) func(params *backends.BackendConstructionParams) (backends.Conn, error) {
	return func(params *backends.BackendConstructionParams) (backends.Conn, error) {
		config, err := readConfiguration(params)
		if err != nil {
			return nil, errors.Wrap(err, "invalid ftp backend configuration")
		}

		options, err := config.makeDialOptions(params.Context, params.Host, secure)
		if err != nil {
			return nil, errors.Wrap(err, "invalid ftp backend configuration")
		}

		serverConn, err := ftp.Dial(params.Address, options...)
		if err != nil {
			return nil, err
		}

		return &FTPBackend{conn: serverConn}, nil
	}
}

func init() {
	backends.Register(&backends.BackendDescriptor{
		ID:          "ftp",
		DisplayName: "FTP",
		Type:        reflect.TypeOf(new(FTPBackend)),
		Dial:        newDialFunc(false),
	})
	backends.Register(&backends.BackendDescriptor{
		ID:          "ftps",
		DisplayName: "FTP over explicit TLS",
		Secure:      true,
		Type:        reflect.TypeOf(new(FTPBackend)),
		Dial:        newDialFunc(true),
	})
}

type FTPBackend struct {
	conn *ftp.ServerConn
}

func (b *FTPBackend) Close() (err error) {
	if b.conn != nil {
		err = b.conn.Quit()
		b.conn = nil
	}
	return
}
