package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/xmlutil"
	"github.com/spf13/cobra"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema CATALOG",
		Short: "List the feature types of a YAML schema catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadCatalog(args[0])
			if err != nil {
				return err
			}
			return printSchema(cmd.OutOrStdout(), s)
		},
	}
}

func occurs(p *catalog.PropertyType) string {
	upper := "unbounded"
	if !p.Unbounded() {
		upper = fmt.Sprint(p.MaxOccurs)
	}
	return fmt.Sprintf("[%d..%s]", p.MinOccurs, upper)
}

func printSchema(out io.Writer, s *catalog.Schema) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "GML %s\n", s.Version())
	for _, ft := range s.FeatureTypes() {
		sb.WriteString(xmlutil.Clark(ft.Name))
		if ft.Abstract {
			sb.WriteString(" (abstract)")
		}
		if ft.Parent != nil {
			sb.WriteString(" extends " + xmlutil.Clark(ft.Parent.Name))
		}
		sb.WriteByte('\n')
		for _, p := range ft.Properties {
			fmt.Fprintf(&sb, "  %-40s %-12s %s\n", xmlutil.Clark(p.Name), p.Kind, occurs(p))
		}
	}
	_, err := io.WriteString(out, sb.String())
	return err
}
