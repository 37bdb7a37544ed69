package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var log = logrus.WithField("prefix", "config")

// Config holds application configuration
type Config struct {
	BackendURL      string
	CaptureFPS      float64
	JPEGQuality     int
	FramesDir       string
	ListenAddr      string
	LogLevel        string
	OfflineConfig   string
	HueHost         string
	HueUser         string
	HueLightID      int
	HueCurtainID    int
	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string
	AutostartStream bool
	HTTPTimeout     time.Duration
}

// HueEnabled reports whether a Hue bridge is configured with at least one device.
func (c *Config) HueEnabled() bool {
	return c.HueHost != "" && c.HueUser != "" && (c.HueLightID > 0 || c.HueCurtainID > 0)
}

func (c *Config) Validate() error {
	var errs []error
	if c.CaptureFPS <= 0 {
		errs = append(errs, fmt.Errorf("capture_fps must be positive, got %v", c.CaptureFPS))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality))
	}
	if c.BackendURL == "" && c.OfflineConfig == "" {
		errs = append(errs, errors.New("backend_url is required unless offline_config is set"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend_url", "http://localhost:8000")
	v.SetDefault("capture_fps", 2.0)
	v.SetDefault("jpeg_quality", 80)
	v.SetDefault("frames_dir", "")
	v.SetDefault("listen_addr", ":8090")
	v.SetDefault("log_level", "info")
	v.SetDefault("offline_config", "")
	v.SetDefault("hue_host", "")
	v.SetDefault("hue_user", "")
	v.SetDefault("hue_light_id", 0)
	v.SetDefault("hue_curtain_id", 0)
	v.SetDefault("mqtt_broker", "")
	v.SetDefault("mqtt_client_id", "liquid-home-console")
	v.SetDefault("mqtt_topic_prefix", "home/room")
	v.SetDefault("autostart_stream", false)
	v.SetDefault("http_timeout", 10*time.Second)
}

// flags maps command line flags to config keys.
var flags = map[string]string{
	"backend-url":    "backend_url",
	"fps":            "capture_fps",
	"quality":        "jpeg_quality",
	"frames-dir":     "frames_dir",
	"listen":         "listen_addr",
	"log-level":      "log_level",
	"offline-config": "offline_config",
	"autostart":      "autostart_stream",
}

// Load reads configuration from .env, the environment, an optional
// config.yaml and the command line, in increasing order of precedence.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("could not load .env file")
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	flagSet := pflag.NewFlagSet("liquid-home-console", pflag.ContinueOnError)
	configFile := flagSet.String("config", "", "path to a YAML config file")
	flagSet.String("backend-url", "", "base URL of the vision backend")
	flagSet.Float64("fps", 0, "frames captured and uploaded per second")
	flagSet.Int("quality", 0, "JPEG quality of uploaded frames (1-100)")
	flagSet.String("frames-dir", "", "directory of still images replayed as the camera")
	flagSet.String("listen", "", "address of the control HTTP server")
	flagSet.String("log-level", "", "trace, debug, info, warn or error")
	flagSet.String("offline-config", "", "JSON file used instead of the backend for actions and rules")
	flagSet.Bool("autostart", false, "start the live stream at startup")
	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	for name, key := range flags {
		if err := v.BindPFlag(key, flagSet.Lookup(name)); err != nil {
			return nil, err
		}
	}

	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if *configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		BackendURL:      v.GetString("backend_url"),
		CaptureFPS:      v.GetFloat64("capture_fps"),
		JPEGQuality:     v.GetInt("jpeg_quality"),
		FramesDir:       v.GetString("frames_dir"),
		ListenAddr:      v.GetString("listen_addr"),
		LogLevel:        v.GetString("log_level"),
		OfflineConfig:   v.GetString("offline_config"),
		HueHost:         v.GetString("hue_host"),
		HueUser:         v.GetString("hue_user"),
		HueLightID:      v.GetInt("hue_light_id"),
		HueCurtainID:    v.GetInt("hue_curtain_id"),
		MQTTBroker:      v.GetString("mqtt_broker"),
		MQTTClientID:    v.GetString("mqtt_client_id"),
		MQTTTopicPrefix: v.GetString("mqtt_topic_prefix"),
		AutostartStream: v.GetBool("autostart_stream"),
		HTTPTimeout:     v.GetDuration("http_timeout"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
