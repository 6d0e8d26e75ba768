package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netmond/internal/announce"
	"github.com/dmdmdm-nz/netmond/internal/api"
	"github.com/dmdmdm-nz/netmond/internal/netmon"
	"github.com/dmdmdm-nz/netmond/internal/runtime"
	"github.com/dmdmdm-nz/netmond/pkg/cli"
	"github.com/dmdmdm-nz/netmond/pkg/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cli.NewRootCommand(serve).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func serve(ctx context.Context, cfg *cli.Config) error {
	netmonSvc := netmon.NewService(netmon.NewBackend())
	apiSvc := api.NewService(cfg.Host, cfg.Port, netmonSvc, cfg.RateLimit)

	// Start in dependency order: netmon → announce → api
	super := runtime.NewSupervisor()
	super.Add("netmon", netmonSvc.Start, netmonSvc.Close)

	if cfg.Advertise {
		instance := cfg.Instance
		if instance == "" {
			instance, _ = os.Hostname()
		}
		announceSvc := announce.NewService(instance, cfg.Port, []string{
			"version=" + version.Version,
			"events=/ws/events",
		})

		// Subscribe before starting the producer so nothing is missed.
		ifCh, ifUnsub := netmonSvc.Subscribe()
		announceSvc.AttachNetmon(ifCh, ifUnsub)
		super.Add("announce", announceSvc.Start, announceSvc.Close)
	}

	super.Add("api", apiSvc.Start, apiSvc.Close)

	if err := super.Start(ctx); err != nil {
		log.WithError(err).Error("Supervisor start failed")
		return err
	}
	if err := super.Wait(ctx); err != nil {
		log.WithError(err).Error("Supervisor wait failed")
		return err
	}
	return nil
}
