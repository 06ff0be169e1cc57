// Command gentoken prints a fresh secret key or a forwarder token signed with one
//
//	gentoken                                      # new SECRET_KEY
//	gentoken --secret <key> --device pixel-7     # token for the SMS forwarder
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/nkiryanov/paysms/internal/service/auth/tokenmanager"
)

func main() {
	if err := run(os.Args[1:], os.Getenv, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gentoken: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, getenv func(string) string, out io.Writer) error {
	var (
		secret string
		device string
		ttl    time.Duration
	)

	fs := pflag.NewFlagSet("gentoken", pflag.ContinueOnError)
	fs.StringVarP(&secret, "secret", "s", getenv("SECRET_KEY"), "Secret key to sign the token with (SECRET_KEY)")
	fs.StringVarP(&device, "device", "d", "", "Device the token is issued for, prints a new secret when empty")
	fs.DurationVar(&ttl, "ttl", 0, "Token lifetime, never expires when zero")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if device == "" {
		key, err := tokenmanager.GenerateSecret()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, key)
		return err
	}

	tm, err := tokenmanager.New(tokenmanager.Config{SecretKey: secret})
	if err != nil {
		return err
	}

	token, err := tm.Issue(device, ttl)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, token)
	return err
}
