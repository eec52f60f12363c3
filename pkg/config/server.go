package config

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" env-default:"localhost"`
	Port uint16 `env:"SERVER_PORT" env-default:"4000"`
}
