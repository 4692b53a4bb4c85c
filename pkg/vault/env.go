package vault

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var loadDotenvOnce sync.Once

// osGetenv resolves an environment variable, first loading a local .env
// file into the process environment if one is present — a no-op in
// production where PRIVATE_KEY and friends come from the real environment,
// grounded on kshinn-umbra-gateway's config.go `_ = godotenv.Load()`
// pattern.
func osGetenv(key string) string {
	loadDotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
	return os.Getenv(key)
}
