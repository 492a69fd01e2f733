// Package config loads the posdash configuration from environment variables.
//
// A .env file in the working directory is read first when present; real
// environment variables take precedence over it. Parsing uses struct tags
// (github.com/caarlos0/env) and Load validates the combination of values
// before returning.
//
// # Variables
//
//	POSDASH_BACKEND_URL      backend API base URL (required)
//	POSDASH_STORAGE          file | memory | redis (default file)
//	POSDASH_STORAGE_DIR      directory of the file backend
//	POSDASH_REDIS_URL        redis://… URL of the redis backend
//	POSDASH_ENCRYPTION_KEY   base64 key of 32 bytes; encrypts stored state
//	POSDASH_TOKEN_HEADER     bearer | legacy (default bearer)
//	POSDASH_REQUEST_TIMEOUT  HTTP client timeout (default 30s)
//	POSDASH_LISTEN_ADDR      dashboard server address (default :8080)
//	POSDASH_SERVICE_NAME     service name in logs (default posdash)
//	APP_ENV                  development | staging | production
//	LOG_LEVEL                debug | info | warn | error
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
package config
