package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	DriverCouchDB   = "couchdb"
	DriverMongoDB   = "mongodb"
	DriverSurrealDB = "surrealdb"
	DriverMemory    = "memory"

	devSecret = "dev-secret-change-in-production"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	JWT       JWTConfig
	Security  SecurityConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

type StoreConfig struct {
	Driver         string
	ConnectTimeout time.Duration
	CouchDB        CouchDBConfig
	MongoDB        MongoDBConfig
	SurrealDB      SurrealDBConfig
}

type CouchDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

func (c CouchDBConfig) URL() string {
	return fmt.Sprintf("http://%s:%s@%s:%s", c.User, c.Password, c.Host, c.Port)
}

type MongoDBConfig struct {
	URI      string
	Database string
}

type SurrealDBConfig struct {
	URL       string
	Namespace string
	Database  string
	User      string
	Password  string
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type SecurityConfig struct {
	BcryptCost int
}

type WebSocketConfig struct {
	ReadBufferSize  int
	WriteBufferSize int
	MaxMessageSize  int64
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxConnPerUser  int
}

type CORSConfig struct {
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load resolves configuration from an optional .env file, the environment
// and command-line flags, in increasing order of precedence.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("notes-server", pflag.ContinueOnError)
	envFile := fs.String("env-file", "", "path to a .env file")
	port := fs.String("port", "", "listen port")
	host := fs.String("host", "", "listen host")
	driver := fs.String("store", "", "store driver: couchdb, mongodb, surrealdb or memory")
	logLevel := fs.String("log-level", "", "log level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", *envFile, err)
		}
	} else {
		godotenv.Load()
	}

	jwtExp, err := time.ParseDuration(getEnv("JWT_EXPIRATION", "60h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION: %w", err)
	}

	connectTimeout, err := time.ParseDuration(getEnv("STORE_CONNECT_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_CONNECT_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8000"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Store: StoreConfig{
			Driver:         getEnv("STORE_DRIVER", DriverCouchDB),
			ConnectTimeout: connectTimeout,
			CouchDB: CouchDBConfig{
				Host:     getEnv("DB_HOST", "localhost"),
				Port:     getEnv("DB_PORT", "5984"),
				User:     getEnv("DB_USER", "admin"),
				Password: getEnv("DB_PASSWORD", "password"),
				Name:     getEnv("DB_NAME", "notes"),
			},
			MongoDB: MongoDBConfig{
				URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
				Database: getEnv("MONGO_DATABASE", "notes"),
			},
			SurrealDB: SurrealDBConfig{
				URL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
				Namespace: getEnv("SURREALDB_NAMESPACE", "notes"),
				Database:  getEnv("SURREALDB_DATABASE", "notes"),
				User:      getEnv("SURREALDB_USER", "root"),
				Password:  getEnv("SURREALDB_PASSWORD", "root"),
			},
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", getEnv("ACCESS_TOKEN_SECRET", devSecret)),
			Expiration: jwtExp,
		},
		Security: SecurityConfig{
			BcryptCost: getEnvAsInt("BCRYPT_COST", 12),
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  getEnvAsInt("WS_READ_BUFFER_SIZE", 1024),
			WriteBufferSize: getEnvAsInt("WS_WRITE_BUFFER_SIZE", 1024),
			MaxMessageSize:  int64(getEnvAsInt("WS_MAX_MESSAGE_SIZE", 4096)),
			WriteWait:       10 * time.Second,
			PongWait:        60 * time.Second,
			PingPeriod:      54 * time.Second,
			MaxConnPerUser:  getEnvAsInt("WS_MAX_CONN_PER_USER", 5),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,X-Device-ID"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
	}

	if fs.Changed("port") {
		cfg.Server.Port = *port
	}
	if fs.Changed("host") {
		cfg.Server.Host = *host
	}
	if fs.Changed("store") {
		cfg.Store.Driver = *driver
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverCouchDB, DriverMongoDB, DriverSurrealDB, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}
	if c.Server.IsProduction() && c.JWT.Secret == devSecret {
		return errors.New("JWT_SECRET must be set in production")
	}
	if c.JWT.Expiration <= 0 {
		return errors.New("JWT_EXPIRATION must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
