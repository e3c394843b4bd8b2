// Package discovery publishes DNS-SD/mDNS advertisements for
// registered printers so AirPrint- and IPP Everywhere-aware clients
// can find them on the local network without manual configuration.
package discovery

import (
	"fmt"
	"sync"

	"github.com/grandcat/zeroconf"

	"github.com/printcore/ippd/internal/model"
)

const (
	ippServiceType  = "_ipp._tcp"
	esclServiceType = "_uscan._tcp"
	domain          = "local."
)

// Advertiser publishes and retracts DNS-SD records as printers are
// added to and removed from a system. One zeroconf.Server is
// registered per printer, keyed by printer-id, so printers can come
// and go independently.
type Advertiser struct {
	host     string
	port     int
	esclPort int

	mu          sync.Mutex
	ippEntries  map[int]*zeroconf.Server
	scanEntries map[int]*zeroconf.Server
}

// NewAdvertiser returns an Advertiser that publishes records pointing
// at host:port for IPP and host:esclPort for eSCL. esclPort may be 0
// if eSCL advertising is not wanted.
func NewAdvertiser(host string, port, esclPort int) *Advertiser {
	return &Advertiser{
		host:        host,
		port:        port,
		esclPort:    esclPort,
		ippEntries:  make(map[int]*zeroconf.Server),
		scanEntries: make(map[int]*zeroconf.Server),
	}
}

// Publish advertises p, replacing any prior advertisement for the same
// printer-id.
func (a *Advertiser) Publish(p *model.Printer) error {
	txt := []string{
		"txtvers=1",
		"qtotal=1",
		"rp=ipp/print/" + p.Name,
		"ty=" + p.MakeModel,
		"product=(" + p.MakeModel + ")",
		fmt.Sprintf("adminurl=http://%s:%d/", a.host, a.port),
		"priority=0",
		"kind=document,envelope",
		"pdl=application/pdf,image/urf",
		"papermax=legal-A4",
		"urf=V1.4,W8,SRGB24",
		"UUID=" + p.UUID(),
		"Scan=" + boolString(a.esclPort != 0),
	}

	srv, err := zeroconf.Register(p.Name, ippServiceType, domain, a.port, txt, nil)
	if err != nil {
		return fmt.Errorf("discovery: register %s: %w", p.Name, err)
	}

	a.mu.Lock()
	if old, ok := a.ippEntries[p.PrinterID]; ok {
		old.Shutdown()
	}
	a.ippEntries[p.PrinterID] = srv
	a.mu.Unlock()

	if a.esclPort != 0 {
		if err := a.publishScan(p); err != nil {
			return err
		}
	}
	return nil
}

func (a *Advertiser) publishScan(p *model.Printer) error {
	txt := []string{
		"txtvers=1",
		"ty=" + p.MakeModel,
		"rs=eSCL/" + p.Name,
		"uuid=" + p.UUID(),
		"representation=",
		"duplex=F",
		"cs=color,grayscale",
		"pdl=image/jpeg,application/pdf",
	}
	srv, err := zeroconf.Register(p.Name+"-scan", esclServiceType, domain, a.esclPort, txt, nil)
	if err != nil {
		return fmt.Errorf("discovery: register scan %s: %w", p.Name, err)
	}
	a.mu.Lock()
	if old, ok := a.scanEntries[p.PrinterID]; ok {
		old.Shutdown()
	}
	a.scanEntries[p.PrinterID] = srv
	a.mu.Unlock()
	return nil
}

// Unpublish retracts the advertisement(s) for the printer identified
// by id.
func (a *Advertiser) Unpublish(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if srv, ok := a.ippEntries[id]; ok {
		srv.Shutdown()
		delete(a.ippEntries, id)
	}
	if srv, ok := a.scanEntries[id]; ok {
		srv.Shutdown()
		delete(a.scanEntries, id)
	}
}

// Shutdown retracts every advertisement.
func (a *Advertiser) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, srv := range a.ippEntries {
		srv.Shutdown()
		delete(a.ippEntries, id)
	}
	for id, srv := range a.scanEntries {
		srv.Shutdown()
		delete(a.scanEntries, id)
	}
}

func boolString(b bool) string {
	if b {
		return "T"
	}
	return "F"
}
