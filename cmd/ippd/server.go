package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/printcore/ippd/internal/config"
	"github.com/printcore/ippd/internal/discovery"
	"github.com/printcore/ippd/internal/drivers/thermal"
	"github.com/printcore/ippd/internal/escl"
	"github.com/printcore/ippd/internal/events"
	"github.com/printcore/ippd/internal/ipp"
	"github.com/printcore/ippd/internal/model"
	"github.com/printcore/ippd/internal/resource"
	"github.com/printcore/ippd/internal/session"
)

// newDriver builds the driver a printer config names. deviceURI
// selects the backing transport: "null:" for the protocol-exercising
// stub, "ble:<name>" or "ble-mac:<address>" for a real LX-D02 over
// Bluetooth LE.
func newDriver(ctx context.Context, adapter *bluetooth.Adapter, deviceURI string, media []string) (model.Driver, error) {
	switch {
	case deviceURI == "" || deviceURI == "null:":
		drv := model.NewNullDriver()
		if len(media) > 0 {
			drv.Media = media
		}
		return drv, nil
	case strings.HasPrefix(deviceURI, "ble:"):
		return thermal.Open(ctx, adapter, thermal.Options{Name: strings.TrimPrefix(deviceURI, "ble:"), Media: media})
	case strings.HasPrefix(deviceURI, "ble-mac:"):
		return thermal.Open(ctx, adapter, thermal.Options{MACAddress: strings.TrimPrefix(deviceURI, "ble-mac:"), Media: media})
	default:
		return nil, fmt.Errorf("unrecognized device uri %q", deviceURI)
	}
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	addr := fs.String("l", ":6310", "HTTP listen `address`")
	esclAddr := fs.String("escl-port", "", "advertise eSCL on this mDNS `port` (empty disables scanner advertisement)")
	host := fs.String("host", "", "mDNS hostname (defaults to the OS hostname)")
	confPath := fs.String("c", config.DefaultPath(), "config `file` path")
	debug := fs.Bool("v", false, "enable verbose protocol dumping")
	noMDNS := fs.Bool("no-mdns", false, "disable DNS-SD advertisement")
	retention := fs.Duration("job-retention", 24*time.Hour, "how long completed jobs are kept before pruning")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := config.Load(*confPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sys := model.NewSystem()

	bus := events.NewBus(4)
	defer bus.Close()
	sys.SetEventSink(bus.Append)

	baseURL := "http://" + hostPort(*addr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var adapter *bluetooth.Adapter
	for _, pc := range st.Printers {
		needsBLE := strings.HasPrefix(pc.DeviceURI, "ble:") || strings.HasPrefix(pc.DeviceURI, "ble-mac:")
		if needsBLE && adapter == nil {
			adapter = bluetooth.DefaultAdapter
			if err := adapter.Enable(); err != nil {
				return fmt.Errorf("enable bluetooth adapter: %w", err)
			}
		}
		drv, err := newDriver(ctx, adapter, pc.DeviceURI, pc.ReadyMedia)
		if err != nil {
			slog.Error("skipping printer, driver failed to open", "printer", pc.Name, "error", err)
			continue
		}
		if _, err := sys.CreatePrinter(pc.Name, pc.MakeModel, pc.Info, pc.DeviceURI, drv, baseURL); err != nil {
			slog.Error("skipping printer, could not register", "printer", pc.Name, "error", err)
		}
	}

	authMode := session.AuthNone
	switch st.Auth.Mode {
	case "external-basic":
		authMode = session.AuthExternalBasic
	case "local-password":
		authMode = session.AuthLocalPassword
	}

	disp := ipp.NewDispatcher(baseURL, sys, ipp.WithBus(bus))

	resources := resource.NewRegistry()

	srv, err := session.New(sys, disp,
		session.WithDebug(*debug),
		session.WithESCL(escl.NewHandler(sys)),
		session.WithResources(resources),
		session.WithAuthPolicy(session.Policy{
			Mode:         authMode,
			Realm:        st.SystemName,
			PasswordHash: st.Auth.PasswordHash,
			SessionKey:   st.Auth.SessionKey,
		}),
	)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	var adv *discovery.Advertiser
	if !*noMDNS {
		mdnsHost := *host
		if mdnsHost == "" {
			mdnsHost, _ = os.Hostname()
		}
		_, portStr, _ := net.SplitHostPort(*addr)
		port := atoiOr(portStr, 6310)
		esclPort := 0
		if *esclAddr != "" {
			esclPort = atoiOr(*esclAddr, 0)
		}
		adv = discovery.NewAdvertiser(mdnsHost, port, esclPort)
		for _, p := range sys.Printers() {
			if err := adv.Publish(p); err != nil {
				slog.Warn("mdns advertisement failed", "printer", p.Name, "error", err)
			}
		}
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	pruneTicker := time.NewTicker(time.Minute)
	defer pruneTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sys.ScheduleAll(ctx)
			case <-pruneTicker.C:
				sys.PruneAll(*retention)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("ippd server listening", "addr", *addr)
		if err := srv.ListenAndServe(*addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		return err
	}

	if adv != nil {
		adv.Shutdown()
	}
	sctx, scancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer scancel()
	return srv.Shutdown(sctx)
}

func hostPort(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "localhost" + addr
	}
	if host == "" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

func atoiOr(s string, def int) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return def
		}
		n = n*10 + int(r-'0')
	}
	if n == 0 {
		return def
	}
	return n
}
