package config

import (
	"crypto/tls"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisOptions parses a Redis connection string. Both redis:// URLs and the
// Azure form "host:port,password=...,ssl=true" are accepted.
func RedisOptions(conn string) (*redis.Options, error) {
	if conn == "" {
		return nil, errors.New("missing redis config")
	}
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts, nil
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: strings.TrimSpace(parts[0])}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
		}
	}
	if opts.Addr == "" {
		return nil, errors.New("redis connection string has no address")
	}
	return opts, nil
}

// NewRedisClient is RedisOptions followed by redis.NewClient.
func NewRedisClient(conn string) (*redis.Client, error) {
	opts, err := RedisOptions(conn)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
