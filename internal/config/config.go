package config

import (
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variables overriding config keys,
// so "reader.cache_size" reads MSCFB_READER_CACHE_SIZE.
const EnvPrefix = "MSCFB"

// Params describes where configuration comes from.
type Params struct {
	// File is an explicit config file. When empty the default file is used
	// if it exists.
	File string
	// Type of the config file, "yaml" when empty.
	Type string

	Defaults func(v *viper.Viper)
}

// DefaultFile returns ~/.config/mscfb.yaml.
func DefaultFile() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".config", "mscfb.yaml"), nil
}

// SetDefaults registers the default value of every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("pack.sector_size", 512)
	v.SetDefault("pack.clsid", "")
	v.SetDefault("pack.include", []string{})
	v.SetDefault("pack.exclude", []string{})
	v.SetDefault("reader.strict", false)
	v.SetDefault("reader.cache_size", 256)
}

// NewConfig builds a viper instance from defaults, the config file and the
// environment, in increasing priority.
func NewConfig(p Params) (v *viper.Viper, err error) {
	v = viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	SetDefaults(v)
	if p.Defaults != nil {
		p.Defaults(v)
	}

	file := p.File
	explicit := file != ""
	if !explicit {
		file, err = DefaultFile()
		if err != nil {
			return v, nil
		}
	}

	v.SetConfigFile(file)
	v.SetConfigType(p.safeType())

	err = v.ReadInConfig()
	if err != nil && !explicit {
		// the default file is optional
		return v, nil
	}

	return v, err
}

func (p Params) safeType() string {
	if p.Type == "" {
		p.Type = "yaml"
	}
	return strings.ToLower(p.Type)
}
