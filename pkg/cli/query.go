package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/dmdmdm-nz/netmond/internal/api"
	"github.com/dmdmdm-nz/netmond/internal/netmon"
)

var newBackend = netmon.NewBackend

// withMonitor runs a monitor, waits up to timeout for its initial enumeration
// and then calls fn. The monitor stops when fn returns.
func withMonitor(ctx context.Context, timeout time.Duration, fn func(ctx context.Context, m netmon.Monitor) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	svc := netmon.NewService(newBackend())
	defer svc.Close()

	errc := make(chan error, 1)
	go func() { errc <- svc.Start(ctx) }()

	wait := ctx
	if timeout > 0 {
		var stop context.CancelFunc
		wait, stop = context.WithTimeout(ctx, timeout)
		defer stop()
	}

	select {
	case <-svc.Enumerated():
	case err := <-errc:
		if err == nil {
			err = errors.New("monitor stopped")
		}
		return fmt.Errorf("enumerating interfaces: %w", err)
	case <-wait.Done():
		return fmt.Errorf("waiting for interface enumeration: %w", wait.Err())
	}
	log.WithField("capabilities", svc.Capabilities()).Debug("Interfaces enumerated")

	err := fn(ctx, svc)
	cancel()
	if startErr := <-errc; err == nil {
		err = startErr
	}
	return err
}

func checkOutput(output string, allowed ...string) error {
	if !slices.Contains(allowed, output) {
		return fmt.Errorf("unsupported output format %q, expected one of %s", output, strings.Join(allowed, ", "))
	}
	return nil
}

func runList(ctx context.Context, cfg *Config, w io.Writer) error {
	if err := checkOutput(cfg.Output, "text", "json", "plist"); err != nil {
		return err
	}
	return withMonitor(ctx, cfg.Timeout, func(ctx context.Context, m netmon.Monitor) error {
		ifaces := m.NetworkInterfaces()
		if cfg.Output == "text" {
			return writeInterfaceTable(w, ifaces)
		}
		infos := make([]api.InterfaceInfo, 0, len(ifaces))
		for _, iface := range ifaces {
			infos = append(infos, api.NewInterfaceInfo(iface))
		}
		return writeEncoded(w, cfg.Output, infos)
	})
}

func runShow(ctx context.Context, cfg *Config, name string, w io.Writer) error {
	if err := checkOutput(cfg.Output, "text", "json", "plist"); err != nil {
		return err
	}
	return withMonitor(ctx, cfg.Timeout, func(ctx context.Context, m netmon.Monitor) error {
		iface, err := m.NetworkInterface(name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if cfg.Output == "text" {
			return writeInterfaceDetail(w, iface)
		}
		return writeEncoded(w, cfg.Output, api.NewInterfaceInfo(iface))
	})
}

func runWatch(ctx context.Context, cfg *Config, w io.Writer) error {
	if err := checkOutput(cfg.Output, "text", "json"); err != nil {
		return err
	}
	return withMonitor(ctx, cfg.Timeout, func(ctx context.Context, m netmon.Monitor) error {
		if cfg.Duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.Duration)
			defer cancel()
		}

		events, unsub := m.Subscribe()
		defer unsub()

		for {
			select {
			case <-ctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					return nil
				}
				if err := writeEvent(w, ev, cfg.Output == "json"); err != nil {
					return err
				}
			}
		}
	})
}
