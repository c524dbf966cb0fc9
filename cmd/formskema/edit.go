package main

import (
	"os"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/docsession"
	"github.com/reoring/formskema/form"
	"github.com/reoring/formskema/schemafile"
)

type editOpts struct {
	root   *rootOpts
	path   string
	value  string
	unset  bool
	force  bool
	write  bool
	output string
}

func newEditCmd(root *rootOpts) *cobra.Command {
	o := &editOpts{root: root}
	cmd := &cobra.Command{
		Use:   "edit DOCUMENT",
		Short: "Change one field through the form and print the document",
		Long: `edit projects the document, finds the visible field at --path and sends
a set (or unset) patch through that field's change callback, so the patch
is prefixed and guarded the same way an editor would emit it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0])
		},
	}
	cmd.Flags().StringVar(&o.path, "path", "", `field path, e.g. body[_key=="b1"].text`)
	cmd.Flags().StringVar(&o.value, "value", "", "new value as JSON; other input is taken as a string")
	cmd.Flags().BoolVar(&o.unset, "unset", false, "remove the value instead of setting it")
	cmd.Flags().BoolVar(&o.force, "force", false, "edit read-only fields")
	cmd.Flags().BoolVarP(&o.write, "write", "w", false, "write the result back to DOCUMENT")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output format (yaml, json; defaults to the input format)")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}

func (o *editOpts) run(cmd *cobra.Command, docPath string) error {
	p, err := formskema.ParsePath(o.path)
	if err != nil {
		return err
	}
	if len(p) == 0 {
		return errors.New("--path must name a field")
	}
	reg, err := o.root.registry()
	if err != nil {
		return err
	}
	doc, err := schemafile.LoadDocument(docPath)
	if err != nil {
		return err
	}
	typ, err := o.root.typeFor(reg, doc)
	if err != nil {
		return err
	}

	s := docsession.New(typ, doc, docsession.Options{
		User:     o.root.user(),
		Logger:   o.root.log.WithField("document", docPath),
		MaxDepth: o.root.v.GetInt("max-depth"),
	})
	props, err := s.Project()
	if err != nil {
		return err
	}
	if props == nil {
		return errors.Errorf("document type %q is hidden", typ.Name)
	}
	node, ok := form.Find(props, p)
	if !ok || node.OnChange() == nil {
		return errors.Errorf("no visible field at %s", p)
	}
	if node.Field != nil && node.Field.ReadOnly && !o.force {
		return errors.Errorf("field %s is read-only (use --force)", p)
	}

	op := formskema.Unset()
	if !o.unset {
		op = formskema.Set(parseValue(o.value))
	}
	node.OnChange().Call(formskema.PatchEventFrom(op))
	if err := s.Err(); err != nil {
		return err
	}
	for _, ev := range s.Patches() {
		o.root.log.WithField("patches", ev.String()).Info("applied")
	}
	for _, m := range s.Validate() {
		o.root.log.WithField("path", m.Path.String()).Warn(m.Message)
	}

	format := schemafile.Format(o.output)
	if format == "" {
		format = schemafile.FormatOf(docPath)
	}
	data, err := encodeDocument(s.Document(), format)
	if err != nil {
		return err
	}
	if o.write {
		return errors.Wrapf(os.WriteFile(docPath, data, 0o644), "write %s", docPath)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func parseValue(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	return v
}

func encodeDocument(doc formskema.Document, format schemafile.Format) ([]byte, error) {
	switch format {
	case schemafile.FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case schemafile.FormatYAML:
		return yaml.Marshal(doc)
	}
	return nil, errors.Errorf("unknown output format %q", format)
}
