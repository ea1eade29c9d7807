// Package config provides configuration loading and validation utilities.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from ./configs/<APP_ENV>.yaml, .env files and
// environment variables, validates it, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	for _, file := range []string{".env.local", ".env"} {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	return LoadFrom("./configs")
}

// LoadFrom is Load with an explicit configuration directory and without .env handling.
func LoadFrom(dir string) (*Config, *viper.Viper, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, alias := range envAliases {
		if err := v.BindEnv(key, envName(key), alias); err != nil {
			return nil, nil, fmt.Errorf("bind env %s: %w", alias, err)
		}
	}

	path := filepath.Join(dir, env+".yaml")
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("read config: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("stat config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env
	if cfg.Sentry.Environment == "" {
		cfg.Sentry.Environment = env
	}

	if err := Validate(cfg); err != nil {
		return nil, nil, err
	}

	return &cfg, v, nil
}

// Validate checks cfg and describes every problem by setting key and environment variable.
func Validate(cfg Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	problems := make([]error, 0, len(validationErrs))
	for _, fieldErr := range validationErrs {
		problems = append(problems, describe(fieldErr))
	}

	return fmt.Errorf("invalid configuration: %w", errors.Join(problems...))
}

// WatchLogLevel calls apply with the new logger.level whenever the config file changes.
func WatchLogLevel(v *viper.Viper, apply func(level string)) bool {
	if v == nil || v.ConfigFileUsed() == "" {
		return false
	}

	v.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}
		apply(v.GetString("logger.level"))
	})
	v.WatchConfig()

	return true
}

func describe(fieldErr validator.FieldError) error {
	key := strings.TrimPrefix(fieldErr.Namespace(), "Config.")
	env := envName(key)
	if alias, ok := envAliases[key]; ok {
		env = alias
	}

	switch fieldErr.Tag() {
	case "required", "required_if":
		return fmt.Errorf("missing required setting %s (env %s)", key, env)
	default:
		rule := fieldErr.Tag()
		if fieldErr.Param() != "" {
			rule += "=" + fieldErr.Param()
		}
		return fmt.Errorf("invalid setting %s=%v: must satisfy %s (env %s)", key, fieldErr.Value(), rule, env)
	}
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
