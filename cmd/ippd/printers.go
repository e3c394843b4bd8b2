package main

import (
	"flag"
	"fmt"

	"github.com/OpenPrinting/goipp"
	"github.com/pterm/pterm"

	"github.com/printcore/ippd/internal/ipp"
	"github.com/printcore/ippd/internal/model"
)

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	url := urlFlag(fs)
	name := fs.String("n", "", "printer `name` (required)")
	info := fs.String("d", "", "printer description")
	deviceURI := fs.String("v", "null:", "device `uri` (null:, ble:<name>, ble-mac:<address>)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("-n is required")
	}

	req := newRequest(goipp.OpCreatePrinter)
	a := ipp.Adder(&req.Printer)
	a("printer-name", goipp.TagName, goipp.String(*name))
	if *info != "" {
		a("printer-info", goipp.TagText, goipp.String(*info))
	}
	if *deviceURI != "" {
		a("smi2699-device-uri", goipp.TagURI, goipp.String(*deviceURI))
	}

	resp, err := newClient(*url).system(req)
	if err != nil {
		return err
	}
	id, _ := ipp.ExtractValue[goipp.Integer](resp.Printer, "printer-id")
	fmt.Printf("created printer %q (id %d)\n", *name, int(id))
	return nil
}

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	url := urlFlag(fs)
	id := fs.Int("j", 0, "printer `id` (required, see 'ippd printers')")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return fmt.Errorf("-j is required")
	}
	req := newRequest(goipp.OpDeletePrinter)
	ipp.Adder(&req.Printer)("printer-id", goipp.TagInteger, goipp.Integer(*id))
	if _, err := newClient(*url).system(req); err != nil {
		return err
	}
	fmt.Printf("deleted printer %d\n", *id)
	return nil
}

func runModify(args []string) error {
	fs := flag.NewFlagSet("modify", flag.ExitOnError)
	url := urlFlag(fs)
	name := fs.String("n", "", "printer `name` (required)")
	accepting := fs.Bool("accepting", true, "whether the printer accepts new jobs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("-n is required")
	}
	req := newRequest(goipp.OpSetPrinterAttributes)
	ipp.Adder(&req.Printer)("printer-is-accepting-jobs", goipp.TagBoolean, goipp.Boolean(*accepting))
	if _, err := newClient(*url).printer(*name, req, nil); err != nil {
		return err
	}
	fmt.Printf("updated printer %q\n", *name)
	return nil
}

func runPrinters(args []string) error {
	fs := flag.NewFlagSet("printers", flag.ExitOnError)
	url := urlFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := newClient(*url).system(newRequest(goipp.OpGetPrinters))
	if err != nil {
		return err
	}

	rows := [][]string{{"id", "name", "state", "make-model", "accepting"}}
	for _, group := range ipp.GroupsOf(resp, goipp.TagPrinterGroup) {
		id, _ := ipp.ExtractValue[goipp.Integer](group, "printer-id")
		name, _ := ipp.AsString(ipp.FindAttr(group, "printer-name"))
		state, _ := ipp.ExtractValue[goipp.Integer](group, "printer-state")
		makeModel, _ := ipp.AsString(ipp.FindAttr(group, "printer-make-and-model"))
		accepting, _ := ipp.ExtractValue[goipp.Boolean](group, "printer-is-accepting-jobs")
		rows = append(rows, []string{
			fmt.Sprint(int(id)), name, model.PrinterState(state).String(), makeModel, fmt.Sprint(bool(accepting)),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runDefault(args []string) error {
	fs := flag.NewFlagSet("default", flag.ExitOnError)
	url := urlFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := newClient(*url).system(newRequest(goipp.OpGetSystemAttributes))
	if err != nil {
		return err
	}
	names, _ := ipp.ExtractValues[goipp.String](resp.System, "printer-names-supported")
	if len(names) == 0 {
		fmt.Println("no printers configured")
		return nil
	}
	fmt.Printf("default printer: %s\n", names[0])
	return nil
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	url := urlFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := newClient(*url).system(newRequest(goipp.OpGetSystemAttributes))
	if err != nil {
		return err
	}
	name, _ := ipp.AsString(ipp.FindAttr(resp.System, "system-name"))
	uptime, _ := ipp.ExtractValue[goipp.Integer](resp.System, "system-up-time")
	names, _ := ipp.ExtractValues[goipp.String](resp.System, "printer-names-supported")

	fmt.Printf("system: %s\n", name)
	fmt.Printf("up-time: %ds\n", int(uptime))
	fmt.Printf("printers: %d\n", len(names))
	return nil
}

func runPause(args []string) error  { return pauseResume(args, "pause", goipp.OpPausePrinter) }
func runResume(args []string) error { return pauseResume(args, "resume", goipp.OpResumePrinter) }

func pauseResume(args []string, verb string, op goipp.Op) error {
	fs := flag.NewFlagSet(verb, flag.ExitOnError)
	url := urlFlag(fs)
	name := fs.String("n", "", "printer `name` (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("-n is required")
	}
	if _, err := newClient(*url).printer(*name, newRequest(op), nil); err != nil {
		return err
	}
	fmt.Printf("%sd printer %q\n", verb, *name)
	return nil
}

func runShutdown(args []string) error {
	fs := flag.NewFlagSet("shutdown", flag.ExitOnError)
	url := urlFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := newClient(*url).system(newRequest(goipp.OpShutdownAllPrinters)); err != nil {
		return err
	}
	fmt.Println("shutdown requested")
	return nil
}

func runOptions(args []string) error {
	fs := flag.NewFlagSet("options", flag.ExitOnError)
	url := urlFlag(fs)
	name := fs.String("n", "", "printer `name` (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("-n is required")
	}
	resp, err := newClient(*url).printer(*name, newRequest(goipp.OpGetPrinterAttributes), nil)
	if err != nil {
		return err
	}
	media, _ := ipp.ExtractValues[goipp.String](resp.Printer, "media-supported")
	def, _ := ipp.AsString(ipp.FindAttr(resp.Printer, "media-default"))
	fmt.Printf("media-default: %s\n", def)
	fmt.Println("media-supported:")
	for _, m := range media {
		fmt.Printf("  %s\n", m)
	}
	return nil
}
