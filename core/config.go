package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Remote store backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendBolt     = "bolt"
	BackendB2       = "b2"
	BackendOSS      = "oss"
)

type (
	Config struct {
		Env          string
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		WorkDir      string
		RollbarToken string

		Server struct {
			Host            string
			ShutdownTimeout time.Duration
		}

		Remote struct {
			Backend  string
			BoltPath string
			Database DatabaseConfig
		}

		Blob struct {
			Backend    string
			PublicBase string

			B2 struct {
				AccountID string
				AppKey    string
			}

			OSS struct {
				Endpoint  string
				AccessKey string
				SecretKey string
			}
		}

		Auth struct {
			HashPasswords bool
		}

		Mail struct {
			SendgridApiKey string
			FromName       string
			FromAddress    string
		}
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c *Config) DefaultFromEmail() mail.Address {
	return mail.Address{Name: c.Mail.FromName, Address: c.Mail.FromAddress}
}

// MailEnabled reports whether outgoing mail can be delivered for real.
func (c *Config) MailEnabled() bool {
	return c.Mail.SendgridApiKey != ""
}

// NewConfig reads the configuration from the environment.
// ENV selects the environment (DEV by default), and `config/.env.<env>` is loaded first when present.
func NewConfig() *Config {
	v := viper.New()

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", env == "DEV")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("appName", "School Portal")
	v.SetDefault("build", "develop")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("server.host", "0.0.0.0:8000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("remote.backend", BackendMemory)
	v.SetDefault("remote.boltPath", filepath.Join(wd, "data", "portal.db"))
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", strconv.Itoa(5432))
	v.SetDefault("database.name", "portal")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", env == "DEV" || env == "TEST")
	v.SetDefault("blob.backend", BackendMemory)
	v.SetDefault("blob.publicBase", "")
	v.SetDefault("blob.b2.accountID", "")
	v.SetDefault("blob.b2.appKey", "")
	v.SetDefault("blob.oss.endpoint", "")
	v.SetDefault("blob.oss.accessKey", "")
	v.SetDefault("blob.oss.secretKey", "")
	v.SetDefault("auth.hashPasswords", false)
	v.SetDefault("mail.sendgridApiKey", "")
	v.SetDefault("mail.fromName", "School Portal")
	v.SetDefault("mail.fromAddress", "noreply@localhost")
	v.AutomaticEnv()

	conf := &Config{
		Env:          env,
		Build:        v.GetString("build"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		AppName:      v.GetString("appName"),
		WorkDir:      wd,
		RollbarToken: v.GetString("rollbarToken"),
	}

	conf.Server.Host = v.GetString("server.host")
	conf.Server.ShutdownTimeout = v.GetDuration("server.shutdownTimeout")

	conf.Remote.Backend = strings.ToLower(v.GetString("remote.backend"))
	conf.Remote.BoltPath = v.GetString("remote.boltPath")
	conf.Remote.Database = DatabaseConfig{
		Engine:     v.GetString("database.engine"),
		Host:       v.GetString("database.host"),
		Port:       v.GetString("database.port"),
		Name:       v.GetString("database.name"),
		User:       v.GetString("database.user"),
		Password:   v.GetString("database.password"),
		DisableTLS: v.GetBool("database.disableTLS"),
	}

	conf.Blob.Backend = strings.ToLower(v.GetString("blob.backend"))
	conf.Blob.PublicBase = v.GetString("blob.publicBase")
	conf.Blob.B2.AccountID = v.GetString("blob.b2.accountID")
	conf.Blob.B2.AppKey = v.GetString("blob.b2.appKey")
	conf.Blob.OSS.Endpoint = v.GetString("blob.oss.endpoint")
	conf.Blob.OSS.AccessKey = v.GetString("blob.oss.accessKey")
	conf.Blob.OSS.SecretKey = v.GetString("blob.oss.secretKey")

	conf.Auth.HashPasswords = v.GetBool("auth.hashPasswords")

	conf.Mail.SendgridApiKey = v.GetString("mail.sendgridApiKey")
	conf.Mail.FromName = v.GetString("mail.fromName")
	conf.Mail.FromAddress = v.GetString("mail.fromAddress")

	return conf
}
