package core

import (
	"fmt"
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host                      string
		Port                      string
		DebugHost                 string
		ShutdownTimeout           time.Duration
		JWTExpirationDelta        time.Duration
		JWTRefreshExpirationDelta time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		Host          string
		Port          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
		StatsTTL time.Duration
	}

	StorageConfig struct {
		Region          string
		AccessKeyID     string
		SecretAccessKey string
		Bucket          string
	}

	// PlaybackConfig holds the timer intervals and thresholds of a playback
	// session. All intervals are fixed application constants by default but
	// remain overridable via the environment.
	PlaybackConfig struct {
		ReadyPollInterval time.Duration
		ProgressInterval  time.Duration
		BufferInterval    time.Duration
		IdleHideDelay     time.Duration
	}

	Config struct {
		AppName                   string
		Env                       string // DEV (local; default), TEST, QA, PROD
		Debug                     bool
		TestMode                  bool
		Build                     string
		WorkDir                   string
		SecretKey                 []byte
		FrontendBaseURL           string
		DefaultFromEmailAddr      string
		SendgridApiKey            string
		RollbarToken              string
		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Storage  StorageConfig
		Playback PlaybackConfig
	}
)

func (conf ServerConfig) Address() string { return net.JoinHostPort(conf.Host, conf.Port) }

func (conf DatabaseConfig) Address() string { return net.JoinHostPort(conf.Host, conf.Port) }

func (conf Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: conf.AppName, Address: conf.DefaultFromEmailAddr}
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("secretKey", "w#5m-dz&uoxh2(h!x)#*c2(#yg4h^$cegm2emy+57=pq5")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.debugHost", "0.0.0.0:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.jwtRefreshExpirationDelta", 4*time.Hour)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "darasa")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "darasa")
	v.SetDefault("database.password", "")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.statsTTL", 30*time.Second)

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.accessKeyID", "")
	v.SetDefault("storage.secretAccessKey", "")
	v.SetDefault("storage.bucket", "darasa-media")

	v.SetDefault("playback.readyPollInterval", 120*time.Millisecond)
	v.SetDefault("playback.progressInterval", time.Second)
	v.SetDefault("playback.bufferInterval", 500*time.Millisecond)
	v.SetDefault("playback.idleHideDelay", 3*time.Second)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err = godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:                   v.GetString("appName"),
		Env:                       env,
		Debug:                     v.GetBool("debug"),
		TestMode:                  v.GetBool("testMode"),
		Build:                     v.GetString("build"),
		WorkDir:                   wd,
		SecretKey:                 []byte(v.GetString("secretKey")),
		FrontendBaseURL:           v.GetString("frontendBaseURL"),
		DefaultFromEmailAddr:      v.GetString("defaultFromEmail"),
		SendgridApiKey:            v.GetString("sendgridApiKey"),
		RollbarToken:              v.GetString("rollbarToken"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),
		Server: ServerConfig{
			Host:                      v.GetString("server.host"),
			Port:                      v.GetString("server.port"),
			DebugHost:                 v.GetString("server.debugHost"),
			ShutdownTimeout:           v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta:        v.GetDuration("server.jwtExpirationDelta"),
			JWTRefreshExpirationDelta: v.GetDuration("server.jwtRefreshExpirationDelta"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			StatsTTL: v.GetDuration("redis.statsTTL"),
		},
		Storage: StorageConfig{
			Region:          v.GetString("storage.region"),
			AccessKeyID:     v.GetString("storage.accessKeyID"),
			SecretAccessKey: v.GetString("storage.secretAccessKey"),
			Bucket:          v.GetString("storage.bucket"),
		},
		Playback: PlaybackConfig{
			ReadyPollInterval: v.GetDuration("playback.readyPollInterval"),
			ProgressInterval:  v.GetDuration("playback.progressInterval"),
			BufferInterval:    v.GetDuration("playback.bufferInterval"),
			IdleHideDelay:     v.GetDuration("playback.idleHideDelay"),
		},
	}
	if conf.TestMode {
		fmt.Println("running in TEST mode")
	}
	return conf
}
