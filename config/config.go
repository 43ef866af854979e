package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// ReadConfig sets up the configuration search paths for appID and reads the
// first config file found. A missing config file is not an error; only
// defaults and environment variables apply then. If explicitFile is not
// empty, only that file is read and it must exist.
func ReadConfig(appID, explicitFile string) error {
	// Set default values. Every Server key needs one so that values coming
	// only from the environment are seen by Unmarshal.
	viper.SetDefault("LogLevel", "info")
	viper.SetDefault("Server.Address", "")
	viper.SetDefault("Server.Port", 21)
	viper.SetDefault("Server.User", "")
	viper.SetDefault("Server.Password", "")
	viper.SetDefault("Server.TLS", false)
	viper.SetDefault("Server.RemoteDir", "")
	viper.SetDefault("Server.CreateDir", false)

	viper.SetEnvPrefix(appID)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if len(explicitFile) > 0 {
		viper.SetConfigFile(explicitFile)
		return viper.ReadInConfig()
	}

	// Set directories to read config from
	if d := os.Getenv("XDG_CONFIG_HOME"); len(d) > 0 {
		viper.AddConfigPath(filepath.Join(d, appID))
	}
	if d, err := homedir.Dir(); err == nil {
		viper.AddConfigPath(filepath.Join(d, "."+appID))
	}
	if runtime.GOOS != "windows" {
		viper.AddConfigPath(filepath.Join("/", "etc", appID))
	}
	viper.AddConfigPath(".")
	viper.SetConfigName(appID)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	}
	return nil
}

func GetConfig() (c *Config, err error) {
	c = new(Config)
	err = viper.Unmarshal(c)
	return
}

// GetBackendConfig returns the configuration sub-tree of the given backend,
// or nil if there is none.
func GetBackendConfig(backendID string) *viper.Viper {
	b := viper.Sub("Backends")
	if b == nil {
		return nil
	}
	return b.Sub(backendID)
}

// ServerConfig holds defaults for the transfer flags of the command line.
type ServerConfig struct {
	Address   string
	Port      int
	User      string
	Password  string
	TLS       bool
	RemoteDir string
	CreateDir bool
}

type Config struct {
	LogLevel string
	Backends map[string]map[string]interface{}
	Server   *ServerConfig
}

// Redacted returns a copy of c that is safe to print.
func (c *Config) Redacted() *Config {
	r := *c
	if c.Server != nil {
		server := *c.Server
		if len(server.Password) > 0 {
			server.Password = "********"
		}
		r.Server = &server
	}
	return &r
}
