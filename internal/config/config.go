package config

import (
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string `mapstructure:"PORT"`
	Origin                    string `mapstructure:"ORIGIN"`
	Environment               string `mapstructure:"ENV"`
	AppURL                    string `mapstructure:"APP_URL"`
	JWTSecret                 string `mapstructure:"JWT_SECRET"`
	JWTRefreshSecret          string `mapstructure:"JWT_REFRESH_SECRET"`
	JWTExpirationMinutes      int    `mapstructure:"JWT_EXPIRATION_MINUTES"`
	JWTRefreshExpirationHours int    `mapstructure:"JWT_REFRESH_EXPIRATION_HOURS"`

	Database DatabaseConfig `mapstructure:",squash"`
	Calendar CalendarConfig `mapstructure:",squash"`
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string `mapstructure:"DB_HOST"`
	Port     string `mapstructure:"DB_PORT"`
	Username string `mapstructure:"DB_USERNAME"`
	Password string `mapstructure:"DB_PASSWORD"`
	Name     string `mapstructure:"DB_NAME"`
	DSN      string `mapstructure:"-"`
}

// CalendarConfig holds Google Calendar integration settings. When
// CredentialsFile is empty the app uses locally generated meeting links.
type CalendarConfig struct {
	CredentialsFile string `mapstructure:"GOOGLE_CALENDAR_CREDENTIALS"`
	CalendarID      string `mapstructure:"GOOGLE_CALENDAR_ID"`
}

// LoadConfig initializes viper to load config values from env, file, or defaults
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	viper.SetDefault("PORT", "3001")
	viper.SetDefault("ORIGIN", "http://localhost:4200")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("APP_URL", "http://localhost:3001")
	viper.SetDefault("JWT_SECRET", "default_jwt_secret")
	viper.SetDefault("JWT_REFRESH_SECRET", "default_refresh_secret")
	viper.SetDefault("JWT_EXPIRATION_MINUTES", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRATION_HOURS", 168) // 7 days
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_USERNAME", "root")
	viper.SetDefault("DB_PASSWORD", "")
	viper.SetDefault("DB_NAME", "sparks")
	viper.SetDefault("GOOGLE_CALENDAR_CREDENTIALS", "")
	viper.SetDefault("GOOGLE_CALENDAR_ID", "primary")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Build DSN (Data Source Name) for MySQL connection
	cfg.Database.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host, cfg.Database.Port, cfg.Database.Name)

	return &cfg, nil
}
