package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/itt/pkg/adapters/html"
	"github.com/aretw0/itt/pkg/core"
)

// sourceFlags select the document values are extracted from, or give them directly.
type sourceFlags struct {
	file     string
	url      string
	customer string
	title    string
	snapshot string
	pkg      map[string]string
	hotel    map[string]string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.file, "file", "", "Extract from an HTML file")
	f.StringVar(&s.url, "url", "", "Extract from an HTML page (http, https or file URL)")
	f.StringVar(&s.customer, "customer", "", "Customer name")
	f.StringVar(&s.title, "title", "", "Package title")
	f.StringVar(&s.snapshot, "snapshot", "", "File holding the document snapshot")
	f.StringToStringVar(&s.pkg, "package", nil, "Package details, e.g. price=$1200,duration=5N")
	f.StringToStringVar(&s.hotel, "hotel", nil, "Hotel details, e.g. hotelName=Atlantis")
	cmd.MarkFlagsMutuallyExclusive("file", "url")
}

// extractor returns the extractor selected by the flags. A "-" argument reads the document from stdin.
func (s *sourceFlags) extractor(args []string) (core.Extractor, bool, error) {
	opts := []html.Option{html.WithSelectors(cfg.HTMLSelectors())}

	switch {
	case s.file != "":
		ex, err := html.FromFile(s.file, opts...)
		return ex, true, err
	case s.url != "":
		return html.FromURL(s.url, opts...), true, nil
	case len(args) > 0 && args[len(args)-1] == "-":
		return html.FromReader(os.Stdin, opts...), true, nil
	}
	return nil, false, nil
}

// input builds the values given directly on the command line.
func (s *sourceFlags) input() (core.UpsertInput, error) {
	in := core.UpsertInput{
		CustomerName:   s.customer,
		PackageTitle:   s.title,
		PackageDetails: core.Details(s.pkg),
		HotelDetails:   core.Details(s.hotel),
	}
	if s.snapshot != "" {
		data, err := os.ReadFile(s.snapshot)
		if err != nil {
			return core.UpsertInput{}, fmt.Errorf("failed to read snapshot: %w", err)
		}
		in.Snapshot = string(data)
	}
	return in, nil
}
