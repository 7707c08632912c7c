// Command face-cli is a client for the face verification API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ---- token store ----

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "face-login")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "face-login")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tokenFile{AccessToken: tok, ExpiresAt: exp}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(tokenPath(), b, 0o600)
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (verify-otp required)")
	}
	return tf.AccessToken, nil
}

// storeTokenFrom saves the access token carried by a verify-otp response, if any.
func storeTokenFrom(env *envelope) (bool, error) {
	if len(env.Data) == 0 {
		return false, nil
	}
	var td struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   string `json:"expires_at"`
	}
	if err := json.Unmarshal(env.Data, &td); err != nil || td.AccessToken == "" {
		return false, err
	}
	exp, err := time.Parse(time.RFC3339, td.ExpiresAt)
	if err != nil {
		return false, err
	}
	return true, saveToken(td.AccessToken, exp)
}

// ---- flags ----

// fileList collects repeated -img flags; a comma-separated value adds several.
type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(v string) error {
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*f = append(*f, p)
		}
	}
	return nil
}

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// report prints the envelope and exits non-zero for error statuses.
func report(env *envelope, err error) {
	if err != nil {
		fail(err)
	}
	printJSON(env)
	if env.StatusCode >= 400 {
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `face-cli
Usage:
  face-cli -addr HOST:PORT <cmd> [args]

Commands:
  version
  ping
  register      -name <full name> -phone <number> -cc <country code> -img a.jpg -img b.jpg -img c.jpg
  verify-image  -phone <number> -cc <country code> -img probe.jpg
  verify-otp    -phone <number> -cc <country code> -otp <code>     (saves token if issued)
  resend-otp    -phone <number> -cc <country code>
  token                                                            (prints saved token)
`)
	os.Exit(2)
}

func requireFlags(pairs ...string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			fmt.Fprintf(os.Stderr, "need -%s\n", pairs[i])
			os.Exit(1)
		}
	}
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the HTTP API.
func main() {
	addr := flag.String("addr", "localhost:8080", "server addr")
	timeout := flag.Duration("timeout", 60*time.Second, "request timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	cli := newAPIClient(*addr)

	switch cmd {

	case "version":
		fmt.Printf("face-cli %s (%s)\n", version, buildDate)

	case "ping":
		report(cli.ping(ctx))

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		name := fs.String("name", "", "full name")
		phone := fs.String("phone", "", "phone number")
		cc := fs.String("cc", "", "country code")
		var imgs fileList
		fs.Var(&imgs, "img", "face image path (repeat 3 times)")
		_ = fs.Parse(args)
		requireFlags("name", *name, "phone", *phone, "cc", *cc)
		report(cli.register(ctx, *name, *phone, *cc, imgs))

	case "verify-image":
		fs := flag.NewFlagSet("verify-image", flag.ExitOnError)
		phone := fs.String("phone", "", "phone number")
		cc := fs.String("cc", "", "country code")
		img := fs.String("img", "", "probe image path")
		_ = fs.Parse(args)
		requireFlags("phone", *phone, "cc", *cc, "img", *img)
		report(cli.verifyImage(ctx, *phone, *cc, *img))

	case "verify-otp":
		fs := flag.NewFlagSet("verify-otp", flag.ExitOnError)
		phone := fs.String("phone", "", "phone number")
		cc := fs.String("cc", "", "country code")
		otp := fs.Int("otp", 0, "six digit code")
		_ = fs.Parse(args)
		requireFlags("phone", *phone, "cc", *cc)
		env, err := cli.verifyOTP(ctx, *phone, *cc, *otp)
		if err == nil && env.StatusCode == 200 {
			if _, serr := storeTokenFrom(env); serr != nil {
				fmt.Fprintln(os.Stderr, "warning: token not saved:", serr)
			}
		}
		report(env, err)

	case "resend-otp":
		fs := flag.NewFlagSet("resend-otp", flag.ExitOnError)
		phone := fs.String("phone", "", "phone number")
		cc := fs.String("cc", "", "country code")
		_ = fs.Parse(args)
		requireFlags("phone", *phone, "cc", *cc)
		report(cli.resendOTP(ctx, *phone, *cc))

	case "token":
		tok, err := loadToken()
		if err != nil {
			fail(err)
		}
		fmt.Println(tok)

	default:
		usage()
	}
}
