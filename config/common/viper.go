package common

import (
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/spf13/viper"
)

type Config struct {
	Viper *viper.Viper
}

func NewViper() *Config {
	config := viper.New()
	config.SetConfigFile(".env")
	config.AddConfigPath("../")
	config.AutomaticEnv()

	log.Trace("Checking file .env ....")
	if err := config.ReadInConfig(); err != nil {
		panic("failed read config")
	}
	return &Config{Viper: config}
}

func (c *Config) GetAppConfig() (appName string) {
	return c.Viper.GetString("APP_NAME")
}

func (c *Config) GetServerPort() string {
	port := c.Viper.GetString("SERVER_PORT")
	if port == "" {
		port = "7720"
	}
	return port
}

func (c *Config) GetDatabaseConfig() (dbHost, dbUser, dbPassword, dbName, dbPort string) {
	dbHost = c.Viper.GetString("DB_HOSTNAME")
	dbUser = c.Viper.GetString("DB_USER")
	dbPassword = c.Viper.GetString("DB_PASSWORD")
	dbName = c.Viper.GetString("DB_NAME")
	dbPort = c.Viper.GetString("DB_PORT")

	return dbHost, dbUser, dbPassword, dbName, dbPort
}

func (c *Config) GetMongoConfig() (uri, database string) {
	uri = c.Viper.GetString("MONGO_URI")
	database = c.Viper.GetString("MONGO_DATABASE")
	if database == "" {
		database = "chat_backend"
	}
	return uri, database
}

func (c *Config) GetRedisConfig() (addr, password string, db int) {
	addr = c.Viper.GetString("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	password = c.Viper.GetString("REDIS_PASSWORD")
	db = c.Viper.GetInt("REDIS_DB")
	return addr, password, db
}

func (c *Config) GetJwtConfig() []byte {
	jwtSecret := c.Viper.GetString("JWT_SECRET")
	return []byte(jwtSecret)
}

// GetPageSize caps message page sizes; requests above the cap are clamped.
func (c *Config) GetPageSize() int {
	size := c.Viper.GetInt("MESSAGE_PAGE_SIZE")
	if size <= 0 {
		size = 50
	}
	return size
}

// GetTypingTTL is how long a typing indicator survives without refresh.
func (c *Config) GetTypingTTL() time.Duration {
	seconds := c.Viper.GetInt("TYPING_TTL_SECONDS")
	if seconds <= 0 {
		seconds = 10
	}
	return time.Duration(seconds) * time.Second
}

func (c *Config) GetStoreTimeout() time.Duration {
	seconds := c.Viper.GetInt("STORE_TIMEOUT_SECONDS")
	if seconds <= 0 {
		seconds = 5
	}
	return time.Duration(seconds) * time.Second
}

func (c *Config) GetReconcileInterval() time.Duration {
	minutes := c.Viper.GetInt("RECONCILE_INTERVAL_MINUTES")
	if minutes <= 0 {
		minutes = 5
	}
	return time.Duration(minutes) * time.Minute
}

func (c *Config) GetReconcileWindow() time.Duration {
	minutes := c.Viper.GetInt("RECONCILE_WINDOW_MINUTES")
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}
