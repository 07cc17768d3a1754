// cmd/preflight/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/hamed0406/metaprobe/internal/config"
	"github.com/hamed0406/metaprobe/internal/probe"
)

func main() {
	_ = godotenv.Load()
	os.Exit(check(os.Getenv, os.Stdout, os.Stderr))
}

// check validates the environment variables a metaprobe deployment reads.
// Every check runs so all problems are reported together; the result is 1
// if any was fatal. Settings from metaprobe.yaml or flags are not seen.
func check(getenv func(string) string, stdout, stderr io.Writer) int {
	failed := false
	fail := func(msg string) {
		fmt.Fprintln(stderr, "✖", msg)
		failed = true
	}
	warn := func(msg string) { fmt.Fprintln(stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Fprintln(stdout, "✔", msg) }
	env := func(k string) string { return strings.TrimSpace(getenv(k)) }

	endpoint := env("ENDPOINT_BASE")
	if endpoint == "" {
		warn("ENDPOINT_BASE empty; default http://localhost:5002/api will be used.")
	} else if base, err := probe.NormalizeEndpoint(endpoint); err != nil {
		fail("ENDPOINT_BASE invalid: " + err.Error())
	} else {
		ok("ENDPOINT_BASE=" + base)
	}

	if targets := env("TARGETS"); targets == "" {
		ok(fmt.Sprintf("TARGETS empty; %d built-in targets will be probed.", len(config.DefaultTargets)))
	} else {
		n := 0
		for _, t := range strings.Split(targets, ",") {
			if strings.TrimSpace(t) != "" {
				n++
			}
		}
		if n == 0 {
			fail("TARGETS has no usable URLs.")
		} else {
			ok(fmt.Sprintf("TARGETS: %d URLs", n))
		}
	}

	admin := env("ADMIN_API_KEYS")
	pub := env("PUBLIC_API_KEYS")
	if admin == "" {
		warn("ADMIN_API_KEYS is empty; POST /api/runs is open to anyone.")
	}
	if pub == "" && admin == "" {
		warn("PUBLIC_API_KEYS is empty; read routes are open to anyone.")
	}
	for name, v := range map[string]string{"ADMIN_API_KEYS": admin, "PUBLIC_API_KEYS": pub} {
		if strings.Contains(v, " ") {
			warn(name + " contains spaces; use comma-separated with no spaces, e.g. key1,key2")
		}
	}

	if addr := env("API_ADDR"); addr == "" {
		warn("API_ADDR is empty; the API binds 127.0.0.1:8080.")
	} else {
		ok("API_ADDR=" + addr)
	}

	if env("DATABASE_URL") == "" {
		warn("DATABASE_URL empty; run history is kept in memory only.")
	} else {
		ok("DATABASE_URL present")
	}

	if allowed := env("ALLOWED_ORIGINS"); allowed == "" {
		warn("ALLOWED_ORIGINS empty; any origin may call the API.")
	} else {
		ok("ALLOWED_ORIGINS=" + allowed)
	}

	if env("SLACK_WEBHOOK_URL") == "" {
		warn("SLACK_WEBHOOK_URL empty; alerts are disabled.")
	} else {
		ok("SLACK_WEBHOOK_URL present")
	}

	if brokers := env("KAFKA_BROKERS"); brokers != "" {
		ok("KAFKA_BROKERS=" + brokers)
	}

	if failed {
		return 1
	}
	ok("preflight passed")
	return 0
}
