package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andaru/gml/catalog"
	"github.com/andaru/gml/decoder"
	"github.com/andaru/gml/feature"
	"github.com/andaru/gml/reference"
	"github.com/andaru/gml/xmlutil"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type decodeParams struct {
	catalog  string
	version  string
	crs      string
	geojson  bool
	external bool
	lax      bool
}

func newDecodeCmd() *cobra.Command {
	var params decodeParams
	cmd := &cobra.Command{
		Use:   "decode [flags] FILE...",
		Short: "Decode GML documents and list their features",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd.OutOrStdout(), params, args)
		},
	}
	cmd.Flags().StringVar(&params.catalog, "catalog", "", "YAML schema catalog; decode schemaless when empty")
	cmd.Flags().StringVar(&params.version, "version", "", "GML version (3.2, 3.1 or 2.1), overriding the catalog")
	cmd.Flags().StringVar(&params.crs, "crs", "", "default CRS of geometries without srsName")
	cmd.Flags().BoolVar(&params.geojson, "geojson", false, "write the features as a GeoJSON feature collection")
	cmd.Flags().BoolVar(&params.external, "external", false, "resolve references into other documents")
	cmd.Flags().BoolVar(&params.lax, "lax", false, "do not check property occurrence bounds")
	return cmd
}

func loadCatalog(path string) (*catalog.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return catalog.LoadYAML(f)
}

func newDecoder(params decodeParams) (*decoder.Decoder, error) {
	var (
		cat  catalog.Catalog
		opts []decoder.Option
	)
	if params.catalog != "" {
		s, err := loadCatalog(params.catalog)
		if err != nil {
			return nil, errors.Wrapf(err, "catalog %s", params.catalog)
		}
		cat = s
	}
	if params.version != "" {
		v, err := catalog.ParseVersion(params.version)
		if err != nil {
			return nil, err
		}
		opts = append(opts, decoder.WithVersion(v))
	}
	if crs := feature.ParseCRS(params.crs); crs != nil {
		opts = append(opts, decoder.WithDefaultCRS(crs))
	}
	if params.lax {
		opts = append(opts, decoder.WithStrictOccurrence(false))
	}
	return decoder.New(cat, opts...), nil
}

func runDecode(out io.Writer, params decodeParams, files []string) error {
	d, err := newDecoder(params)
	if err != nil {
		return err
	}

	var features []*feature.Feature
	for _, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		f, err := os.Open(abs)
		if err != nil {
			return err
		}
		coll, err := d.DecodeDocument(f, "file://"+filepath.ToSlash(abs))
		f.Close()
		if err != nil {
			return errors.Wrap(err, file)
		}
		features = append(features, coll.Features()...)
	}

	var external reference.Resolver
	if params.external {
		external = d.ExternalResolver(reference.FileLoader)
	}
	rep := d.Resolve(external)
	for _, dangling := range rep.Dangling {
		fmt.Fprintf(os.Stderr, "warning: %v\n", dangling.Err)
	}

	if params.geojson {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(feature.ToFeatureCollection(features))
	}
	return summarize(out, features, rep)
}

func summarize(out io.Writer, features []*feature.Feature, rep *reference.Report) error {
	envelopes, err := feature.NewEnvelopeCache(len(features) + 1)
	if err != nil {
		return err
	}
	for _, f := range features {
		typ := xmlutil.Clark(f.Name())
		line := fmt.Sprintf("%-24s %-40s %3d properties", f.ID(), typ, len(f.Properties()))
		if b, ok := envelopes.Envelope(f); ok {
			line += fmt.Sprintf("  [%g %g, %g %g]", b.Min[0], b.Min[1], b.Max[0], b.Max[1])
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintf(out, "%d features, %d references resolved, %d dangling\n",
		len(features), rep.Resolved, len(rep.Dangling))
	return err
}
