package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mrorigo/pearls/internal/model"
)

func printRecords(records []model.Record) {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(records)
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tPRI\tTITLE")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.ID, r.Status, r.Priority, r.Title)
		}
		_ = w.Flush()
	default:
		for _, r := range records {
			fmt.Printf("%s [%s] p%d %s\n", r.ID, r.Status, r.Priority, r.Title)
		}
	}
}

func printRecord(r model.Record) {
	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(r)
		return
	}
	fmt.Printf("%s\n", render(accentStyle, r.ID))
	fmt.Printf("  title:    %s\n", r.Title)
	fmt.Printf("  status:   %s\n", r.Status)
	fmt.Printf("  priority: %d\n", r.Priority)
	fmt.Printf("  author:   %s\n", r.Author)
	if r.Description != "" {
		fmt.Printf("  description: %s\n", r.Description)
	}
	if len(r.Labels) > 0 {
		fmt.Printf("  labels:   %v\n", r.Labels)
	}
	for _, d := range r.Deps {
		fmt.Printf("  dep:      %s\n", d.String())
	}
}
