package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// QoS policies for the notification transport. "acknowledged" publishes at
// MQTT QoS 1 and waits for the broker ack within AckTimeout;
// "fire_and_forget" publishes at QoS 0 and closes immediately.
const (
	QoSFireAndForget = "fire_and_forget"
	QoSAcknowledged  = "acknowledged"
)

type BrokerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Namespace      string        `mapstructure:"namespace"`
	ClientPrefix   string        `mapstructure:"client_prefix"`
	QoS            string        `mapstructure:"qos"`
	AckTimeout     time.Duration `mapstructure:"ack_timeout"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
}

type Config struct {
	DatabaseURL string       `mapstructure:"database_url"`
	ServerPort  string       `mapstructure:"server_port"`
	JWTSecret   string       `mapstructure:"jwt_secret"`
	CORSOrigin  string       `mapstructure:"cors_origin"`
	Broker      BrokerConfig `mapstructure:"broker"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	// Fallback defaults
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}
	if config.CORSOrigin == "" {
		config.CORSOrigin = "http://localhost:3000"
	}

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}
	if config.Broker.Host == "" {
		log.Fatal("Broker host must be set in the config file")
	}
	if config.Broker.Namespace == "" {
		log.Fatal("Broker namespace must be set in the config file")
	}

	if config.Broker.Port == 0 {
		config.Broker.Port = 1883
	}
	if config.Broker.ClientPrefix == "" {
		config.Broker.ClientPrefix = "chat_api_publisher"
	}
	if config.Broker.QoS == "" {
		config.Broker.QoS = QoSAcknowledged
	}
	if config.Broker.QoS != QoSAcknowledged && config.Broker.QoS != QoSFireAndForget {
		log.Fatalf("Unknown broker QoS policy: %q", config.Broker.QoS)
	}
	if config.Broker.AckTimeout == 0 {
		config.Broker.AckTimeout = 5 * time.Second
	}
	if config.Broker.ConnectTimeout == 0 {
		config.Broker.ConnectTimeout = 10 * time.Second
	}
	if config.Broker.ShutdownGrace == 0 {
		config.Broker.ShutdownGrace = 5 * time.Second
	}

	return &config
}
