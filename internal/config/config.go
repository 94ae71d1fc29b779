package config

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type DBConfig struct {
	Username string
	Password string
	Host     string
	Port     string
	DBName   string
	SSLMode  string
}

// URL builds a connection URL with the given scheme. pgx connects with "postgres",
// the migrator expects "pgx5".
func (c DBConfig) URL(scheme string) string {
	u := url.URL{
		Scheme:   scheme,
		User:     url.UserPassword(c.Username, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

type ServerConfig struct {
	Port           string
	Handler        http.Handler
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// ClientConfig configures the terminal forum client.
type ClientConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
	FreshFor    time.Duration
}
