package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	Agent    AgentConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type RedisConfig struct {
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisDB       int
}

// AgentConfig holds the decision pipeline tunables. Zero values are replaced
// by each business package's defaults.
type AgentConfig struct {
	CronSchedule string
	CycleTimeout time.Duration

	LeadTimeBufferDays  float64
	ForecastHorizonDays int
	ForecastWindowDays  int
	MinForecastDays     int
	ModelCacheTTL       time.Duration

	MinTrainingRows int

	CriticalCoverDays    float64
	BottleneckWindowDays int
	MinDurationSamples   int
	AnomalyContamination float64
	StuckAfter           time.Duration
	ExpiryWindowDays     int

	DecisionDedupTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	agent, err := loadAgent()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Stock Agent"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "stock_agent"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Redis: RedisConfig{
			RedisEnabled:  getEnv("REDIS_ENABLED", "false") == "true",
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisUsername: getEnv("REDIS_USERNAME", "default"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Agent: agent,
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	return cfg, nil
}

func loadAgent() (AgentConfig, error) {
	var (
		agent AgentConfig
		err   error
	)

	agent.CronSchedule = getEnv("AGENT_CRON_SCHEDULE", "@every 5m")

	if agent.CycleTimeout, err = getEnvDuration("AGENT_CYCLE_TIMEOUT", 2*time.Minute); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_CYCLE_TIMEOUT")
	}

	if agent.LeadTimeBufferDays, err = getEnvFloat("AGENT_LEAD_TIME_BUFFER_DAYS", 7); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_LEAD_TIME_BUFFER_DAYS")
	}
	if agent.ForecastHorizonDays, err = getEnvInt("AGENT_FORECAST_HORIZON_DAYS", 7); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_FORECAST_HORIZON_DAYS")
	}
	if agent.ForecastWindowDays, err = getEnvInt("AGENT_FORECAST_WINDOW_DAYS", 90); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_FORECAST_WINDOW_DAYS")
	}
	if agent.MinForecastDays, err = getEnvInt("AGENT_MIN_FORECAST_DAYS", 10); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_MIN_FORECAST_DAYS")
	}
	if agent.ModelCacheTTL, err = getEnvDuration("AGENT_MODEL_CACHE_TTL", 6*time.Hour); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_MODEL_CACHE_TTL")
	}
	if agent.MinTrainingRows, err = getEnvInt("AGENT_MIN_TRAINING_ROWS", 20); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_MIN_TRAINING_ROWS")
	}
	if agent.CriticalCoverDays, err = getEnvFloat("AGENT_CRITICAL_COVER_DAYS", 2); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_CRITICAL_COVER_DAYS")
	}
	if agent.BottleneckWindowDays, err = getEnvInt("AGENT_BOTTLENECK_WINDOW_DAYS", 14); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_BOTTLENECK_WINDOW_DAYS")
	}
	if agent.MinDurationSamples, err = getEnvInt("AGENT_MIN_DURATION_SAMPLES", 10); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_MIN_DURATION_SAMPLES")
	}
	if agent.AnomalyContamination, err = getEnvFloat("AGENT_ANOMALY_CONTAMINATION", 0.05); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_ANOMALY_CONTAMINATION")
	}
	if agent.StuckAfter, err = getEnvDuration("AGENT_STUCK_AFTER", 48*time.Hour); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_STUCK_AFTER")
	}
	if agent.ExpiryWindowDays, err = getEnvInt("AGENT_EXPIRY_WINDOW_DAYS", 7); err != nil {
		return AgentConfig{}, errors.New("invalid AGENT_EXPIRY_WINDOW_DAYS")
	}
	if agent.DecisionDedupTTL, err = getEnvDuration("DECISION_DEDUP_TTL", 0); err != nil {
		return AgentConfig{}, errors.New("invalid DECISION_DEDUP_TTL")
	}

	return agent, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(val)
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(val, 64)
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(val)
}
