package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OpenPrinting/goipp"
	"github.com/pterm/pterm"

	"github.com/printcore/ippd/internal/ipp"
	"github.com/printcore/ippd/internal/model"
)

func runJobs(args []string) error {
	fs := flag.NewFlagSet("jobs", flag.ExitOnError)
	url := urlFlag(fs)
	name := fs.String("n", "", "printer `name` (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("-n is required")
	}

	resp, err := newClient(*url).printer(*name, newRequest(goipp.OpGetJobs), nil)
	if err != nil {
		return err
	}

	rows := [][]string{{"id", "name", "user", "state", "documents"}}
	for _, group := range ipp.GroupsOf(resp, goipp.TagJobGroup) {
		id, _ := ipp.ExtractValue[goipp.Integer](group, "job-id")
		jobName, _ := ipp.AsString(ipp.FindAttr(group, "job-name"))
		user, _ := ipp.AsString(ipp.FindAttr(group, "job-originating-user-name"))
		state, _ := ipp.ExtractValue[goipp.Integer](group, "job-state")
		docs, _ := ipp.ExtractValue[goipp.Integer](group, "number-of-documents")
		rows = append(rows, []string{
			fmt.Sprint(int(id)), jobName, user, model.JobState(state).String(), fmt.Sprint(int(docs)),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func runSubmit(args []string) error {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	url := urlFlag(fs)
	name := fs.String("n", "", "printer `name` (required)")
	file := fs.String("f", "", "document `file` to submit (required)")
	user := fs.String("user", os.Getenv("USER"), "requesting user name")
	format := fs.String("t", "", "document format (guessed from the file when empty)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *file == "" {
		return fmt.Errorf("-n and -f are required")
	}

	body, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("read %s: %w", *file, err)
	}

	docFormat := *format
	if docFormat == "" {
		if detected, ok := ipp.DetectFormat(body, nil); ok {
			docFormat = detected
		} else {
			docFormat = string(ipp.OctetStream)
		}
	}

	req := newRequest(goipp.OpPrintJob)
	a := ipp.Adder(&req.Operation)
	a("requesting-user-name", goipp.TagName, goipp.String(*user))
	a("job-name", goipp.TagName, goipp.String(filepath.Base(*file)))
	a("document-format", goipp.TagMimeType, goipp.String(docFormat))

	resp, err := newClient(*url).printer(*name, req, body)
	if err != nil {
		return err
	}
	id, _ := ipp.ExtractValue[goipp.Integer](resp.Job, "job-id")
	state, _ := ipp.ExtractValue[goipp.Integer](resp.Job, "job-state")
	fmt.Printf("submitted job %d to %q (%s)\n", int(id), *name, model.JobState(state).String())
	return nil
}
