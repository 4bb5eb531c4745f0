// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/H0llyW00dzZ/netintel/src/export"
	"github.com/H0llyW00dzZ/netintel/src/netintel"
)

type queryFlags struct {
	analyze     bool
	propagation bool
	api         string
	xlsx        string
	json        bool
}

func newCmdQuery(a *app) *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "query <domain|ip>",
		Short: "Run every applicable lookup for a domain or IP address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd, args[0], f)
		},
	}

	cmd.Flags().BoolVar(&f.analyze, "analyze", false, "Also run the analyze lookup (overrides auto_analyze)")
	cmd.Flags().BoolVar(&f.propagation, "propagation", false, "Also run the DNS propagation lookup (overrides propagation_check)")
	cmd.Flags().StringVar(&f.api, "api", "", "Lookup API base URL (overrides api_base)")
	cmd.Flags().StringVar(&f.xlsx, "xlsx", "", "Write the results to an XLSX workbook")
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the results as JSON")
	return cmd
}

func (a *app) runQuery(cmd *cobra.Command, raw string, f queryFlags) error {
	opts := a.cfg.InspectorOptions(a.logger)
	if f.api != "" {
		opts = append(opts, netintel.WithAPIBase(f.api))
	}
	inspector := netintel.New(opts...)

	submit := a.cfg.SubmitOptions()
	if cmd.Flags().Changed("analyze") {
		submit.AutoAnalyze = f.analyze
	}
	if cmd.Flags().Changed("propagation") {
		submit.PropagationCheck = f.propagation
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub, err := inspector.Submit(ctx, raw, submit)
	if err != nil {
		return err
	}
	summary, err := sub.Wait(ctx)
	if err != nil {
		return err
	}
	tasks := sub.Tasks()

	out := cmd.OutOrStdout()
	if f.json {
		err = writeJSON(out, tasks, summary)
	} else {
		err = writeText(out, tasks, summary)
	}
	if err != nil {
		return err
	}

	if f.xlsx != "" {
		if err := writeWorkbookFile(f.xlsx, tasks, summary); err != nil {
			return err
		}
		a.logger.Info().Str("file", f.xlsx).Msg("workbook written")
	}
	return nil
}

func writeWorkbookFile(path string, tasks []netintel.Task, summary netintel.Summary) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return export.WriteWorkbook(file, tasks, summary)
}

// writeText prints one block per lookup followed by the summary line.
func writeText(w io.Writer, tasks []netintel.Task, summary netintel.Summary) error {
	p := &printer{w: w}

	p.printf("%s (%s)\n\n", summary.Target.Raw, summary.Target.Kind)
	for _, task := range tasks {
		header := fmt.Sprintf("[%s] %s", task.Status, task.Lookup.Title())
		if task.Endpoint != "" {
			header += " " + task.Endpoint
		}
		if task.Supplementary {
			header += " (from " + task.Param + ")"
		}
		if task.Degraded {
			header += " !"
		}
		p.printf("%s\n", header)

		if task.Err != nil {
			p.printf("  error: %v\n", task.Err)
		}
		for _, section := range task.Sections {
			indent := "  "
			if section.Title != "" {
				p.printf("  %s\n", section.Title)
				indent = "    "
			}
			for _, field := range section.Fields {
				p.printf("%s%s: %s\n", indent, field.Label, field.Value)
			}
		}
		p.printf("\n")
	}
	p.printf("%s\n", summary.Message())
	return p.err
}

// printer remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

type jsonField struct {
	Section string `json:"section,omitempty"`
	Label   string `json:"label"`
	Value   string `json:"value"`
}

type jsonTask struct {
	Lookup        string      `json:"lookup"`
	Status        string      `json:"status"`
	Endpoint      string      `json:"endpoint,omitempty"`
	Param         string      `json:"param,omitempty"`
	Supplementary bool        `json:"supplementary,omitempty"`
	Degraded      bool        `json:"degraded,omitempty"`
	Error         string      `json:"error,omitempty"`
	Fields        []jsonField `json:"fields"`
}

type jsonReport struct {
	Target     string     `json:"target"`
	Kind       string     `json:"kind"`
	Generation uint64     `json:"generation"`
	ID         string     `json:"id"`
	Total      int        `json:"total"`
	Failures   int        `json:"failures"`
	Warnings   int        `json:"warnings"`
	Message    string     `json:"message"`
	Tasks      []jsonTask `json:"tasks"`
}

func writeJSON(w io.Writer, tasks []netintel.Task, summary netintel.Summary) error {
	report := jsonReport{
		Target:     summary.Target.Raw,
		Kind:       summary.Target.Kind.String(),
		Generation: summary.Generation,
		ID:         summary.ID,
		Total:      summary.Total,
		Failures:   summary.Failures,
		Warnings:   summary.Warnings,
		Message:    summary.Message(),
		Tasks:      make([]jsonTask, 0, len(tasks)),
	}

	for _, task := range tasks {
		jt := jsonTask{
			Lookup:        string(task.Lookup),
			Status:        task.Status.String(),
			Endpoint:      task.Endpoint,
			Param:         task.Param,
			Supplementary: task.Supplementary,
			Degraded:      task.Degraded,
			Fields:        []jsonField{},
		}
		if task.Err != nil {
			jt.Error = task.Err.Error()
		}
		for _, section := range task.Sections {
			for _, field := range section.Fields {
				jt.Fields = append(jt.Fields, jsonField{Section: section.Title, Label: field.Label, Value: field.Value})
			}
		}
		report.Tasks = append(report.Tasks, jt)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
