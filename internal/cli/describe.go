package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/r9s-ai/xcompile/pkg/generator"
	"github.com/r9s-ai/xcompile/pkg/hostdesc"
	"github.com/r9s-ai/xcompile/pkg/hostsrc"
)

func newDescribeCmd() *cobra.Command {
	var hostType, format string
	cmd := &cobra.Command{
		Use:   "describe HOST",
		Short: "Print the bindable members of a host manifest or source",
		Long: "Prints members in host order. --format yaml emits a manifest that can be passed back as\n" +
			"--host or sent to POST /v1/compile.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			host, err := hostsrc.Load(args[0], hostType)
			if err != nil {
				return err
			}
			desc, err := hostdesc.Describe(host)
			if err != nil {
				return err
			}
			bindable := hostdesc.Check(host) == nil
			return writeDescriptor(cmd.OutOrStdout(), desc, bindable, format)
		},
	}
	cmd.Flags().StringVar(&hostType, "host-type", "", "host type inside a .go/.java source")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text|yaml|json")
	return cmd
}

func writeDescriptor(w io.Writer, d *hostdesc.Descriptor, bindable bool, format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(hostdesc.ManifestFor(d, bindable)); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(hostdesc.ManifestFor(d, bindable))
	case "text", "":
	default:
		return fmt.Errorf("--format must be one of text|yaml|json, got %q", format)
	}

	state := "bindable"
	if !bindable {
		state = "not bindable"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %d members)\n", d.TypeName(), state, d.Len())
	for _, m := range d.Members() {
		fmt.Fprintf(&b, "  %-8s %-16s %s", m.Kind, m.Name, m.Type)
		if m.ReadOnly {
			b.WriteString(" readonly")
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newLanguagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List registered binding languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := a.reg.Names()
			if len(names) == 0 {
				return errors.New("no binding languages registered")
			}
			var b strings.Builder
			for _, name := range names {
				lang, err := a.reg.Load(name)
				if err != nil {
					fmt.Fprintf(&b, "%-10s error: %v\n", name, err)
					continue
				}
				fmt.Fprintf(&b, "%-10s %s\n", name, strings.Join(lang.Extensions(), " "))
			}
			_, err := io.WriteString(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}

func newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List code generation targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var b strings.Builder
			for _, t := range generator.Targets() {
				fmt.Fprintf(&b, "%-10s %s\n", t, t.Extension())
			}
			_, err := io.WriteString(cmd.OutOrStdout(), b.String())
			return err
		},
	}
}
