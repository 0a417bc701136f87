package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabasePath      string
	UploadDir         string
	SessionSecret     string
	CronSecret        string
	GinMode           string
	LogLevel          string
	TokenTTL          time.Duration
	SuperRootUserName string
	SuperRootPassword string
}

// LoadEnv 尝试读取 .env 文件，缺失时直接使用进程环境变量。
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		Logger.Debug("no .env file loaded, using process environment: ", err)
	}
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	return LoadFrom(newViper())
}

// LoadFrom 允许测试注入自定义的 viper 实例。
func LoadFrom(v *viper.Viper) AppConfig {
	port := strings.TrimSpace(v.GetString("port"))
	if port == "" {
		port = "8080"
	}

	listenAddr := strings.TrimSpace(v.GetString("listen_addr"))
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%s", port)
	}

	ttl := v.GetDuration("token_ttl")
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabasePath:      strings.TrimSpace(v.GetString("database_path")),
		UploadDir:         strings.TrimSpace(v.GetString("upload_dir")),
		SessionSecret:     strings.TrimSpace(v.GetString("session_secret")),
		CronSecret:        strings.TrimSpace(v.GetString("cron_secret")),
		GinMode:           strings.TrimSpace(v.GetString("gin_mode")),
		LogLevel:          strings.TrimSpace(v.GetString("log_level")),
		TokenTTL:          ttl,
		SuperRootUserName: strings.TrimSpace(v.GetString("super_root_user_name")),
		SuperRootPassword: strings.TrimSpace(v.GetString("super_root_password")),
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("database_path", "dailyfocus.db")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("session_secret", "dailyfocus-dev-secret")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("token_ttl", "168h")

	// 环境变量名与键一致（大写），如 DATABASE_PATH、CRON_SECRET
	for _, key := range []string{
		"port", "listen_addr", "database_path", "upload_dir", "session_secret", "cron_secret",
		"gin_mode", "log_level", "token_ttl", "super_root_user_name", "super_root_password",
	} {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}
	return v
}
