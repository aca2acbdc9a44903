// Command vendas-refresh asks a running vendas server to refresh its
// snapshot by publishing one message on the refresh queue.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"vendas/internal/amqp"
	"vendas/internal/cli"
	vlog "vendas/internal/log"
)

func main() {
	reason := flag.String("reason", "manual", "reason recorded with the refresh request")
	timeout := flag.Duration("timeout", 10*time.Second, "publish timeout")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to request a refresh")
		os.Exit(1)
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", vlog.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := client.PublishRefresh(ctx, *reason); err != nil {
		logger.Error("Failed to publish refresh request", vlog.FieldError, err, vlog.FieldReason, *reason)
		os.Exit(1)
	}
	logger.Info("Refresh requested", vlog.FieldReason, *reason, "queue", cfg.AMQPQueue)
}
