// Package config loads per-host console settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/smnsjas/go-winrm-console/client"
)

const (
	// DirName is the directory under the user config dir.
	DirName = "winrm-console"
	// FileName is the config file name.
	FileName = "config.yaml"
)

// Settings are the connection settings for one host. Nil or empty fields
// are unset and inherit from the layer below.
type Settings struct {
	Port      *int           `yaml:"port,omitempty"`
	TLS       *bool          `yaml:"tls,omitempty"`
	Insecure  *bool          `yaml:"insecure,omitempty"`
	CAFile    string         `yaml:"ca_file,omitempty"`
	Proxy     string         `yaml:"proxy,omitempty"`
	Transport string         `yaml:"transport,omitempty"`
	Encoding  string         `yaml:"encoding,omitempty"`
	Timeout   *time.Duration `yaml:"timeout,omitempty"`
	Codepage  *int           `yaml:"codepage,omitempty"`
	Realm     string         `yaml:"realm,omitempty"`
	Krb5Conf  string         `yaml:"krb5conf,omitempty"`
	SPN       string         `yaml:"spn,omitempty"`
	User      string         `yaml:"user,omitempty"`

	// Remote shell settings.
	WorkDir     string            `yaml:"workdir,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	NoProfile   *bool             `yaml:"noprofile,omitempty"`
	IdleTimeout *time.Duration    `yaml:"idle_timeout,omitempty"`
}

// File is the on-disk configuration.
type File struct {
	Defaults Settings            `yaml:"defaults"`
	Hosts    map[string]Settings `yaml:"hosts"`
}

// DefaultPath returns $XDG_CONFIG_HOME/winrm-console/config.yaml or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: locate home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, DirName, FileName), nil
}

// Load reads path. A missing file yields an empty configuration.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{Hosts: map[string]Settings{}}, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if f.Hosts == nil {
		f.Hosts = map[string]Settings{}
	}

	if err := f.Defaults.Validate(); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}
	for name, s := range f.Hosts {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("config: host %s: %w", name, err)
		}
	}
	return &f, nil
}

// Host returns the defaults overlaid with the block for host. Host names
// match case-insensitively.
func (f *File) Host(host string) Settings {
	s := f.Defaults
	if hs, ok := f.Hosts[host]; ok {
		return s.Merge(hs)
	}
	for name, hs := range f.Hosts {
		if strings.EqualFold(name, host) {
			return s.Merge(hs)
		}
	}
	return s
}

// Merge returns s with every field set in over replacing its own.
func (s Settings) Merge(over Settings) Settings {
	if over.Port != nil {
		s.Port = over.Port
	}
	if over.TLS != nil {
		s.TLS = over.TLS
	}
	if over.Insecure != nil {
		s.Insecure = over.Insecure
	}
	if over.CAFile != "" {
		s.CAFile = over.CAFile
	}
	if over.Proxy != "" {
		s.Proxy = over.Proxy
	}
	if over.Transport != "" {
		s.Transport = over.Transport
	}
	if over.Encoding != "" {
		s.Encoding = over.Encoding
	}
	if over.Timeout != nil {
		s.Timeout = over.Timeout
	}
	if over.Codepage != nil {
		s.Codepage = over.Codepage
	}
	if over.Realm != "" {
		s.Realm = over.Realm
	}
	if over.Krb5Conf != "" {
		s.Krb5Conf = over.Krb5Conf
	}
	if over.SPN != "" {
		s.SPN = over.SPN
	}
	if over.User != "" {
		s.User = over.User
	}
	if over.WorkDir != "" {
		s.WorkDir = over.WorkDir
	}
	if len(over.Env) > 0 {
		env := make(map[string]string, len(s.Env)+len(over.Env))
		for k, v := range s.Env {
			env[k] = v
		}
		for k, v := range over.Env {
			env[k] = v
		}
		s.Env = env
	}
	if over.NoProfile != nil {
		s.NoProfile = over.NoProfile
	}
	if over.IdleTimeout != nil {
		s.IdleTimeout = over.IdleTimeout
	}
	return s
}

// Validate checks the values that can be checked without connecting.
func (s Settings) Validate() error {
	if s.Transport != "" {
		if _, err := client.ParseTransport(s.Transport); err != nil {
			return err
		}
	}
	if s.Port != nil && (*s.Port < 0 || *s.Port > 65535) {
		return fmt.Errorf("invalid port %d", *s.Port)
	}
	if s.Timeout != nil && *s.Timeout < 0 {
		return fmt.Errorf("invalid timeout %s", *s.Timeout)
	}
	if s.IdleTimeout != nil && *s.IdleTimeout < 0 {
		return fmt.Errorf("invalid idle_timeout %s", *s.IdleTimeout)
	}
	return nil
}

// ClientConfig applies s on top of client.DefaultConfig. Credentials are
// not part of Settings and are left empty.
func (s Settings) ClientConfig() (client.Config, error) {
	if err := s.Validate(); err != nil {
		return client.Config{}, err
	}

	cfg := client.DefaultConfig()
	if s.Port != nil {
		cfg.Port = *s.Port
	}
	if s.TLS != nil {
		cfg.UseTLS = *s.TLS
	}
	if s.Insecure != nil {
		cfg.InsecureSkipVerify = *s.Insecure
	}
	if s.Transport != "" {
		cfg.Transport, _ = client.ParseTransport(s.Transport)
	}
	if s.Timeout != nil && *s.Timeout > 0 {
		cfg.Timeout = *s.Timeout
	}
	if s.Codepage != nil && *s.Codepage > 0 {
		cfg.Codepage = *s.Codepage
	}
	cfg.CAFile = s.CAFile
	cfg.Proxy = s.Proxy
	cfg.Realm = s.Realm
	cfg.Krb5ConfPath = s.Krb5Conf
	cfg.TargetSPN = s.SPN
	cfg.WorkingDirectory = s.WorkDir
	cfg.Environment = s.Env
	if s.NoProfile != nil {
		cfg.NoProfile = *s.NoProfile
	}
	if s.IdleTimeout != nil {
		cfg.IdleTimeout = *s.IdleTimeout
	}
	return cfg, nil
}
