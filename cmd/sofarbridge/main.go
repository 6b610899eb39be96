package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sofarbridge/sofarbridge/pkg/log"
	"github.com/sofarbridge/sofarbridge/pkg/mqttpub"
	"github.com/sofarbridge/sofarbridge/pkg/runner"
	"github.com/sofarbridge/sofarbridge/pkg/sofar"
	"github.com/sofarbridge/sofarbridge/pkg/statetree"

	"github.com/levenlabs/go-lflag"
)

func main() {
	// init packages
	c := sofar.Configured()
	s := statetree.Configured()
	b := mqttpub.Configured()

	r := runner.Configured(c, s, b)

	// parse flags
	lflag.Configure()

	// lflag automatically sets llog's level, but we need to set the slog level
	level, err := log.LevelFromLlog()
	if err != nil {
		panic(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	log.SetDefaultLogLevel(level)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// The runner exits the process in its termination hook, so the store has
	// to be closed there instead of in a defer.
	r.SetTerminator(func(reason string, code int) {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close state tree", "error", err)
		}
		os.Exit(code)
	})

	r.Run(ctx)
}
