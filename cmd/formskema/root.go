package main

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	formskema "github.com/reoring/formskema"
	"github.com/reoring/formskema/i18n"
	"github.com/reoring/formskema/schemafile"
)

const longRootDescription = `formskema derives form state trees from schema descriptors and
documents. Settings can also be given in .formskema.yaml (current or home
directory) or as FORMSKEMA_* environment variables.
`

type rootOpts struct {
	cfgFile string
	v       *viper.Viper
	log     *logrus.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{v: viper.New(), log: logrus.New()}
	cmd := &cobra.Command{
		Use:           "formskema",
		Short:         "Project documents into form state",
		Long:          longRootDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&opts.cfgFile, "config", "", "config file (default is .formskema.yaml)")
	fs.StringP("schema", "s", "", "schema descriptor (YAML or JSON)")
	fs.StringP("type", "t", "", "document type (defaults to the document's _type)")
	fs.Int("max-depth", 0, "nesting level at which projection stops")
	fs.String("lang", "en", "message language (en, ja)")
	fs.String("user", "", "current user id")
	fs.StringSlice("roles", nil, "roles of the current user")
	fs.BoolP("debug", "d", false, "turn on debug logging")
	fs.String("log-format", "text", "log format (text, json)")
	for _, name := range []string{"schema", "type", "max-depth", "lang", "user", "roles", "debug", "log-format"} {
		_ = opts.v.BindPFlag(name, fs.Lookup(name))
	}

	cmd.AddCommand(newTypesCmd(opts), newProjectCmd(opts), newEditCmd(opts))
	return cmd
}

func (o *rootOpts) setup(cmd *cobra.Command) error {
	o.v.SetEnvPrefix("FORMSKEMA")
	o.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	o.v.AutomaticEnv()
	if o.cfgFile != "" {
		o.v.SetConfigFile(o.cfgFile)
	} else {
		o.v.SetConfigName(".formskema")
		o.v.SetConfigType("yaml")
		o.v.AddConfigPath(".")
		o.v.AddConfigPath("$HOME")
	}
	if err := o.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if o.cfgFile != "" || !errors.As(err, &notFound) {
			return errors.Wrap(err, "read config")
		}
	}

	o.log.SetOutput(cmd.ErrOrStderr())
	if o.v.GetBool("debug") {
		o.log.SetLevel(logrus.DebugLevel)
	} else {
		o.log.SetLevel(logrus.InfoLevel)
	}
	switch o.v.GetString("log-format") {
	case "json":
		o.log.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		o.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	default:
		return errors.Errorf("unknown log format %q", o.v.GetString("log-format"))
	}

	i18n.SetLanguage(o.v.GetString("lang"))
	if path := o.v.ConfigFileUsed(); path != "" {
		o.log.WithField("config", path).Debug("loaded config file")
	}
	return nil
}

func (o *rootOpts) registry() (*schemafile.Registry, error) {
	path := o.v.GetString("schema")
	if path == "" {
		return nil, errors.New("no schema given (use --schema or FORMSKEMA_SCHEMA)")
	}
	return schemafile.Load(path)
}

// typeFor picks the configured type, falling back to the document's _type.
func (o *rootOpts) typeFor(reg *schemafile.Registry, doc formskema.Document) (*formskema.SchemaType, error) {
	name := o.v.GetString("type")
	if name == "" {
		name, _ = doc["_type"].(string)
	}
	if name == "" {
		return nil, errors.New("document has no _type and no --type was given")
	}
	t, ok := reg.Type(name)
	if !ok {
		return nil, errors.Wrapf(schemafile.ErrUnknownType, "%q", name)
	}
	if !t.IsObject() {
		return nil, errors.Errorf("type %q is a %s, documents must be objects", name, t.JSONType())
	}
	return t, nil
}

func (o *rootOpts) user() *formskema.CurrentUser {
	id := o.v.GetString("user")
	if id == "" {
		return nil
	}
	u := &formskema.CurrentUser{ID: id}
	for _, r := range o.v.GetStringSlice("roles") {
		u.Roles = append(u.Roles, formskema.Role{Name: r})
	}
	return u
}
