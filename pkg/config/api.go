package config

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverMemory   = "memory"
	StoreDriverPostgres = "postgres"
)

// APIConfig holds runtime configuration for the roster API service.
type APIConfig struct {
	Environment string
	Addr        string

	StoreDriver   string
	DatabaseURL   string
	MigrationsDir string

	// Creation defaults applied by the HTTP layer when a request omits the
	// field. The core still validates whatever reaches it.
	DefaultVenueName  string
	DefaultMinPlayers int
	DefaultMaxPlayers int

	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("API_ADDR", ":8080"),
		StoreDriver:        GetString("STORE_DRIVER", StoreDriverMemory),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://sportmanager:sportmanager@db:5432/sportmanager?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		DefaultVenueName:   GetString("DEFAULT_VENUE_NAME", "Nova Sports Soccer Field"),
		DefaultMinPlayers:  GetInt("DEFAULT_MIN_PLAYERS", 10),
		DefaultMaxPlayers:  GetInt("DEFAULT_MAX_PLAYERS", 12),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
