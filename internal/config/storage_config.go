package config

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type Storage struct {
	Driver      string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"./data/auth.db"`
	RedisURL    string `env:"REDIS_URL"`
}

var _ StorageConfig = Storage{}

func (s Storage) GetDatabaseDriver() string {
	return s.Driver
}

func (s Storage) GetDatabaseURL() string {
	return s.DatabaseURL
}

// GetRedisURL returns the Redis URL. When set, refresh records are kept in Redis
// instead of the SQL database.
func (s Storage) GetRedisURL() string {
	return s.RedisURL
}
