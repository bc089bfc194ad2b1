package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	ListenHost string `env:"LISTEN_HOST" envDefault:""`
	ListenPort uint16 `env:"LISTEN_PORT" envDefault:"3001" validate:"min=1,max=65535"`

	// Directories for the canvas-image side channel.
	ImageDir    string `env:"IMAGE_DIR"    envDefault:"img"`
	EnhancedDir string `env:"ENHANCED_DIR" envDefault:"enhanced_drawings"`

	// Third-party generation API the enhance endpoint forwards to.
	EnhanceAPIURL string `env:"ENHANCE_API_URL" envDefault:""`
	EnhanceAPIKey string `env:"ENHANCE_API_KEY" envDefault:""`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
