// Package config loads the archviz configuration from a TOML file.
//
// A minimal file:
//
//	[api]
//	base_url = "http://localhost:8000"
//	timeout = "2m"
//
//	[storage]
//	backend = "redis"
//	addr = "localhost:6379"
//	ttl = "24h"
//
//	[log]
//	level = "debug"
//
// ARCHVIZ_API_URL, ARCHVIZ_STORAGE and ARCHVIZ_LOG_LEVEL override the file.
package config
