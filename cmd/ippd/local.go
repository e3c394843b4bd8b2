package main

import (
	"flag"
	"fmt"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/printcore/ippd/internal/drivers/thermal"
)

// runDrivers lists the driver kinds a device-uri passed to 'ippd add
// -v' can select, rather than talking to a running server: the set is
// fixed at build time, not discovered from one.
func runDrivers(args []string) error {
	fs := flag.NewFlagSet("drivers", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Println("null     stub driver, no hardware required (device-uri: null: or empty)")
	fmt.Printf("thermal  %dx%.0f DPI BLE thermal printer (device-uri: ble:<name> or ble-mac:<address>)\n", thermal.Width, float64(thermal.DPI))
	return nil
}

// runDevices scans for nearby BLE peripherals for the given duration
// and prints their advertised name and address, the information
// needed to build a ble:/ble-mac: device-uri for 'ippd add'.
func runDevices(args []string) error {
	fs := flag.NewFlagSet("devices", flag.ExitOnError)
	timeout := fs.Duration("t", 5*time.Second, "scan `duration`")
	if err := fs.Parse(args); err != nil {
		return err
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return fmt.Errorf("enable bluetooth adapter: %w", err)
	}

	seen := map[string]bool{}
	fmt.Println("name                 address")
	timer := time.AfterFunc(*timeout, func() {
		_ = adapter.StopScan()
	})
	defer timer.Stop()

	err := adapter.Scan(func(a *bluetooth.Adapter, sr bluetooth.ScanResult) {
		addr := sr.Address.String()
		if seen[addr] {
			return
		}
		seen[addr] = true
		fmt.Printf("%-20s %s\n", sr.LocalName(), addr)
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	if len(seen) == 0 {
		fmt.Println("no devices found")
	}
	return nil
}
