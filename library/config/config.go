package config

import (
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/library-catalog/pkg/database"
	"github.com/Astemirdum/library-catalog/pkg/kafka"
	"github.com/Astemirdum/library-catalog/pkg/logger"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"LIBRARY_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"LIBRARY_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE" default:"10s"`
	// BodyLimit is the request body ceiling in echo size notation.
	BodyLimit string `yaml:"bodyLimit" envconfig:"HTTP_BODY_LIMIT" default:"1M"`
}

type Config struct {
	Server   HTTPServer   `yaml:"server"`
	Database database.DB  `yaml:"db"`
	Log      logger.Log   `yaml:"log"`
	Kafka    kafka.Config `yaml:"kafka"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment. Options are applied on top of it.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		config, err := load(ops...)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
	})

	return cfg
}

func load(ops ...Option) (*Config, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, err
	}
	for _, op := range ops {
		op(&config)
	}
	return &config, nil
}
