// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Struct fields are bound with `env` tags and defaults with `envDefault`:
//
//	type RedisConfig struct {
//		URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
//	}
package config
