package tools

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/named-data/ndnplay/gateway"
	"github.com/named-data/ndnplay/std/log"
	"github.com/spf13/cobra"
)

type Gateway struct{}

func (Gateway) String() string {
	return "gateway"
}

func (gw Gateway) run(_ *cobra.Command, args []string) {
	file := ""
	if len(args) > 0 {
		file = args[0]
	}

	config, err := gateway.LoadConfig(file)
	if err != nil {
		log.Fatal(gw, "Unable to load configuration", "err", err)
		return
	}

	logger, err := log.New(os.Stderr, config.Log.Format, config.Log.Level)
	if err != nil {
		log.Fatal(gw, "Invalid log configuration", "err", err)
		return
	}
	log.SetDefault(logger)

	g, err := gateway.New(config)
	if err != nil {
		log.Fatal(gw, "Unable to create gateway", "err", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := g.Run(ctx, nil); err != nil {
		log.Fatal(gw, "Gateway stopped", "err", err)
	}
}
