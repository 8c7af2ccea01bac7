// shopctl drives the auth API from a terminal:
//
//	shopctl register --username alice --email alice@example.com --password secret1
//	shopctl login --username alice --password secret1
//	shopctl profile
//	shopctl refresh
//	shopctl logout
//
// login and refresh store the token pair in a session file so later
// commands can reuse it.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/pflag"

	"github.com/microshop/platform/pkg/authclient"
)

const defaultURL = "http://localhost:8080"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type globals struct {
	url     string
	session string
	timeout time.Duration
}

func (g *globals) addFlags(fs *pflag.FlagSet) {
	fs.StringVar(&g.url, "url", envOr("SHOPCTL_URL", defaultURL), "gateway or auth service base URL")
	fs.StringVar(&g.session, "session", envOr("SHOPCTL_SESSION", defaultSessionPath()), "file holding the current token pair")
	fs.DurationVar(&g.timeout, "timeout", 10*time.Second, "request timeout")
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(stdout)
		return nil
	}

	cmd, rest := args[0], args[1:]
	var g globals
	fs := pflag.NewFlagSet("shopctl "+cmd, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	g.addFlags(fs)

	switch cmd {
	case "register":
		var in authclient.RegisterRequest
		var address string
		fs.StringVar(&in.Username, "username", "", "account name")
		fs.StringVar(&in.Email, "email", "", "email address")
		fs.StringVar(&in.Password, "password", "", "password (at least 6 characters)")
		fs.StringVar(&in.Role, "role", "User", "role to register with")
		fs.StringVar(&address, "address", "", "postal address")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if address != "" {
			in.Address = &address
		}
		return withClient(ctx, g, func(ctx context.Context, c *authclient.Client) error {
			msg, err := c.Register(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, msg)
			return nil
		})

	case "login":
		var username, password string
		fs.StringVarP(&username, "username", "u", "", "account name")
		fs.StringVarP(&password, "password", "p", "", "password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return withClient(ctx, g, func(ctx context.Context, c *authclient.Client) error {
			pair, err := c.Login(ctx, username, password)
			if err != nil {
				return err
			}
			if err := saveSession(g.session, pair); err != nil {
				return err
			}
			return printJSON(stdout, pair)
		})

	case "refresh":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return withClient(ctx, g, func(ctx context.Context, c *authclient.Client) error {
			cur, err := loadSession(g.session)
			if err != nil {
				return err
			}
			pair, err := c.Refresh(ctx, cur.RefreshToken)
			if err != nil {
				return err
			}
			if err := saveSession(g.session, pair); err != nil {
				return err
			}
			return printJSON(stdout, pair)
		})

	case "logout":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return withClient(ctx, g, func(ctx context.Context, c *authclient.Client) error {
			cur, err := loadSession(g.session)
			if err != nil {
				return err
			}
			if err := c.Logout(ctx, cur.AccessToken, cur.RefreshToken); err != nil {
				return err
			}
			if err := os.Remove(g.session); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			fmt.Fprintln(stdout, "logged out")
			return nil
		})

	case "profile":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return withClient(ctx, g, func(ctx context.Context, c *authclient.Client) error {
			cur, err := loadSession(g.session)
			if err != nil {
				return err
			}
			p, err := c.Profile(ctx, cur.AccessToken)
			if err != nil {
				return err
			}
			return printJSON(stdout, p)
		})

	default:
		return fmt.Errorf("unknown command %q (try: shopctl help)", cmd)
	}
}

func withClient(ctx context.Context, g globals, fn func(context.Context, *authclient.Client) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return fn(ctx, authclient.NewClient(g.url))
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `usage: shopctl <command> [flags]

commands:
  register   create an account
  login      sign in and store the token pair
  refresh    rotate the stored refresh token
  logout     revoke the stored refresh token
  profile    show the signed-in account

global flags:
  --url        base URL (default $SHOPCTL_URL or `+defaultURL+`)
  --session    session file (default $SHOPCTL_SESSION or ~/.shopctl/session.json)
  --timeout    request timeout
`)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shopctl-session.json"
	}
	return filepath.Join(home, ".shopctl", "session.json")
}

func saveSession(path string, pair *authclient.TokenPair) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("session dir: %w", err)
	}
	b, err := json.Marshal(pair)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func loadSession(path string) (*authclient.TokenPair, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.New("not logged in (run shopctl login)")
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var pair authclient.TokenPair
	if err := json.Unmarshal(b, &pair); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &pair, nil
}
