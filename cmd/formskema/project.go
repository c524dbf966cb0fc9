package main

import (
	"runtime"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/reoring/formskema/docsession"
	"github.com/reoring/formskema/schemafile"
)

type projectOpts struct {
	root        *rootOpts
	statePath   string
	validate    bool
	concurrency int
}

// projection is one entry of the project output. Form holds the props
// tree already encoded; go-json cannot compile the recursive props types
// as a nested field.
type projection struct {
	Document string          `json:"document"`
	Form     json.RawMessage `json:"form"`
}

func newProjectCmd(root *rootOpts) *cobra.Command {
	o := &projectOpts{root: root}
	cmd := &cobra.Command{
		Use:   "project DOCUMENT...",
		Short: "Print the projected form state of documents as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
	cmd.Flags().StringVar(&o.statePath, "state", "", "YAML file with focus, group and expansion state")
	cmd.Flags().BoolVar(&o.validate, "validate", false, "validate documents and attach the markers")
	cmd.Flags().IntVarP(&o.concurrency, "concurrency", "j", runtime.NumCPU(), "documents projected in parallel")
	return cmd
}

func (o *projectOpts) run(cmd *cobra.Command, paths []string) error {
	reg, err := o.root.registry()
	if err != nil {
		return err
	}
	sf, err := loadState(o.statePath)
	if err != nil {
		return err
	}
	state, err := sf.ambient()
	if err != nil {
		return err
	}

	// each document gets its own session, and with it its own Projector
	out := make([]projection, len(paths))
	eg, ctx := errgroup.WithContext(cmd.Context())
	if o.concurrency > 0 {
		eg.SetLimit(o.concurrency)
	}
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			doc, err := schemafile.LoadDocument(path)
			if err != nil {
				return err
			}
			typ, err := o.root.typeFor(reg, doc)
			if err != nil {
				return err
			}
			log := o.root.log.WithField("document", path)
			s := docsession.New(typ, doc, docsession.Options{
				User:     o.root.user(),
				Logger:   log,
				MaxDepth: o.root.v.GetInt("max-depth"),
				Presence: sf.Presence,
			})
			s.SetState(state)
			if o.validate {
				if ms := s.Validate(); ms.HasErrors() {
					log.WithField("markers", len(ms)).Info("document is invalid")
				}
			}
			props, err := s.Project()
			if err != nil {
				return err
			}
			data, err := json.Marshal(props)
			if err != nil {
				return errors.Wrapf(err, "encode %s", path)
			}
			out[i] = projection{Document: path, Form: data}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
