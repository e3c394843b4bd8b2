// Command ippd runs and administers the print/scan framework: a
// "server" subcommand hosts the IPP/eSCL/admin surface in-process,
// and every other subcommand is a thin IPP client talking to a
// running server over HTTP, the same split the teacher's single flat
// main.go draws between "connect to a device" and "do something to
// it" but generalized across a whole system instead of one printer.
package main

import (
	"flag"
	"fmt"
	"os"
)

type subcommand struct {
	name  string
	brief string
	run   func(args []string) error
}

var subcommands []subcommand

func register(name, brief string, run func(args []string) error) {
	subcommands = append(subcommands, subcommand{name: name, brief: brief, run: run})
}

func init() {
	register("server", "run the IPP/eSCL/admin server", runServer)
	register("add", "create a new printer", runAdd)
	register("delete", "delete a printer", runDelete)
	register("modify", "change a printer's accepting-jobs state", runModify)
	register("printers", "list printers", runPrinters)
	register("default", "show the default printer (does not set it)", runDefault)
	register("status", "show system status", runStatus)
	register("pause", "pause a printer", runPause)
	register("resume", "resume a printer", runResume)
	register("shutdown", "request an orderly shutdown of all printers", runShutdown)
	register("jobs", "list jobs on a printer", runJobs)
	register("submit", "submit a document to a printer", runSubmit)
	register("options", "show a printer's supported job options", runOptions)
	register("drivers", "list built-in driver names", runDrivers)
	register("devices", "scan for nearby BLE printers", runDevices)
}

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintln(w, "usage: ippd <command> [flags]")
	fmt.Fprintln(w, "\ncommands:")
	for _, c := range subcommands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.brief)
	}
	fmt.Fprintln(w, "\nrun 'ippd <command> -h' for flags specific to that command")
}

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}

	for _, c := range subcommands {
		if c.name != args[0] {
			continue
		}
		if err := c.run(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "ippd %s: %v\n", c.name, err)
			os.Exit(1)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "ippd: unknown command %q\n\n", args[0])
	usage()
	os.Exit(2)
}

// urlFlag registers the -u flag every client subcommand shares,
// pointing at a running server's base URL.
func urlFlag(fs *flag.FlagSet) *string {
	return fs.String("u", "http://localhost:6310", "base `url` of a running ippd server")
}
