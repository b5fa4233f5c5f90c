// Command devtoken prints a bearer token for local requests against the API.
// It signs with the same JWT_SECRET, JWT_ISSUER and JWT_TTL the server reads.
package main

import (
	"fmt"
	"log"
	"os"

	"koleksi/internal/config"
	"koleksi/internal/models"
	"koleksi/internal/services"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	flags := pflag.NewFlagSet("devtoken", pflag.ExitOnError)
	subject := flags.String("sub", "", "principal id to put in the token (required)")
	email := flags.String("email", "", "optional email claim")
	flags.String("secret", "", "signing secret, overrides JWT_SECRET")
	flags.Duration("ttl", 0, "token lifetime, overrides JWT_TTL")
	_ = flags.Parse(os.Args[1:])

	v := viper.New()
	if f := flags.Lookup("secret"); f.Changed {
		v.Set("JWT_SECRET", f.Value.String())
	}
	if f := flags.Lookup("ttl"); f.Changed {
		v.Set("JWT_TTL", f.Value.String())
	}
	// The token tool never opens the database.
	v.Set("DB_DRIVER", "memory")

	cfg, err := config.Load(v)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	token, err := services.NewIdentityService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL).
		IssueToken(models.Principal{ID: *subject, Email: *email})
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
