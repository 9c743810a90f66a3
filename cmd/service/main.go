package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/busfleet/opsproxy/internal"
	"github.com/busfleet/opsproxy/internal/config"
	"github.com/busfleet/opsproxy/internal/logging"

	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    false,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "main-service",
	})

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)

	upstreamAPIKey := os.Getenv("OPSPROXY_UPSTREAM_API_KEY")
	if upstreamAPIKey == "" {
		log.Errorf("upstream API key not set, use OPSPROXY_UPSTREAM_API_KEY env var to set it")
	}

	tokenSigningSecret := os.Getenv("OPSPROXY_TOKEN_SIGNING_SECRET")
	if tokenSigningSecret == "" {
		log.Errorf("token signing secret not set. use OPSPROXY_TOKEN_SIGNING_SECRET")
	}

	encodedAccounts := os.Getenv("OPSPROXY_USER_ACCOUNTS")
	if encodedAccounts == "" && strings.ToLower(cfg.AccountsBackend) != "postgres" {
		log.Errorf("user accounts not set. use OPSPROXY_USER_ACCOUNTS (base64 encoded JSON array)")
	}

	redisPassword := os.Getenv("OPSPROXY_REDIS_PASS")
	if redisPassword == "" {
		log.Errorf("redis password not set. use OPSPROXY_REDIS_PASS")
	}

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:             cfg,
			UpstreamAPIKey:     upstreamAPIKey,
			TokenSigningSecret: tokenSigningSecret,
			EncodedAccounts:    encodedAccounts,
			RedisPassword:      redisPassword,
			VersionInfo:        versionInfo,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	server.GracefulShutdown()
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}
