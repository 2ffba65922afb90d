// internal/config/config.go
//
// Server and game settings.
// Precedence, lowest first:
//   - Default()
//   - an optional TOML file
//   - environment variables (main loads .env into the environment first)
//
// Default() doubles as the "reset settings" action: 3 digits, hard solver,
// player "Player", one second before each automated move.

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type Config struct {
	Addr           string  `toml:"addr" validate:"required"`
	DBPath         string  `toml:"db_path" validate:"required"`
	LogLevel       string  `toml:"log_level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	JWTSecret      string  `toml:"jwt_secret" validate:"required"`
	JWTExpiresDays int     `toml:"jwt_expires_days" validate:"gte=1,lte=365"`
	CookieName     string  `toml:"cookie_name" validate:"required"`
	ClientOrigin   string  `toml:"client_origin" validate:"required,url"`
	Production     bool    `toml:"production"`
	DailySalt      string  `toml:"daily_salt" validate:"required"`
	RateLimit      float64 `toml:"rate_limit" validate:"gt=0"`
	RateBurst      int     `toml:"rate_burst" validate:"gte=1"`
	Game           Game    `toml:"game"`
}

// Game holds the settings a player can change between sessions.
type Game struct {
	Digits     int      `toml:"digits" validate:"oneof=3 4"`
	Difficulty string   `toml:"difficulty" validate:"oneof=easy hard random"`
	Player     string   `toml:"player" validate:"required,max=24"`
	Pace       Duration `toml:"pace" validate:"gte=0"`
}

// Duration reads values such as "1s" or "250ms" from TOML.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:           ":5175",
		DBPath:         "./data/numbergame.db",
		LogLevel:       "info",
		JWTSecret:      "dev_secret_change_me",
		JWTExpiresDays: 14,
		CookieName:     "numbergame_token",
		ClientOrigin:   "http://localhost:5173",
		DailySalt:      "local_dev_salt",
		RateLimit:      20,
		RateBurst:      40,
		Game: Game{
			Digits:     3,
			Difficulty: "hard",
			Player:     "Player",
			Pace:       Duration(time.Second),
		},
	}
}

// Load builds the configuration. path may be empty to skip the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Level is the zerolog level named by LogLevel, info when unparsable.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func applyEnv(c *Config) error {
	str := func(k string, dst *string) {
		if v := os.Getenv(k); v != "" {
			*dst = v
		}
	}
	num := func(k string, dst *int) error {
		if v := os.Getenv(k); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			*dst = n
		}
		return nil
	}

	if v := os.Getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	str("ADDR", &c.Addr)
	str("DB_PATH", &c.DBPath)
	str("LOG_LEVEL", &c.LogLevel)
	str("JWT_SECRET", &c.JWTSecret)
	str("COOKIE_NAME", &c.CookieName)
	str("CLIENT_ORIGIN", &c.ClientOrigin)
	str("DAILY_SALT", &c.DailySalt)
	str("GAME_DIFFICULTY", &c.Game.Difficulty)
	str("GAME_PLAYER", &c.Game.Player)
	if strings.EqualFold(os.Getenv("NODE_ENV"), "production") {
		c.Production = true
	}

	if err := num("JWT_EXPIRES_DAYS", &c.JWTExpiresDays); err != nil {
		return err
	}
	if err := num("RATE_BURST", &c.RateBurst); err != nil {
		return err
	}
	if err := num("GAME_DIGITS", &c.Game.Digits); err != nil {
		return err
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT: %w", err)
		}
		c.RateLimit = f
	}
	if v := os.Getenv("GAME_PACE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GAME_PACE: %w", err)
		}
		c.Game.Pace = Duration(d)
	}
	return nil
}
