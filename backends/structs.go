package backends

import (
	"context"
	"errors"
	"reflect"

	"github.com/spf13/viper"
)

var ErrUnknownBackend = errors.New("unknown backend")

type BackendDescriptor struct {
	ID, DisplayName string

	// Secure is set for backends that protect both control and data channels.
	Secure bool
	Type   reflect.Type
	Dial   func(params *BackendConstructionParams) (Conn, error)
}

type BackendConstructionParams struct {
	// Context bounds connection establishment only.
	Context context.Context
	// Address is the host:port pair to connect to.
	Address string
	// Host is the bare host name, used for TLS server name checks.
	Host    string
	// Config is the backend's own configuration sub-tree. May be nil.
	Config  *viper.Viper
}
