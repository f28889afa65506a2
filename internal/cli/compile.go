package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/xcompile/internal/logx"
	"github.com/r9s-ai/xcompile/pkg/config"
	"github.com/r9s-ai/xcompile/pkg/hostsrc"
	"github.com/r9s-ai/xcompile/pkg/xcompile"
)

// stdoutDir as output directory prints generated files instead of writing them.
const stdoutDir = "-"

type jobOptions struct {
	language string
	source   string
	host     string
	hostType string
	targets  []string
	out      string
	name     string
	jobs     []string
}

func newCompileCmd(a *app) *cobra.Command {
	var opts jobOptions
	cmd := &cobra.Command{
		Use:   "compile [source]",
		Short: "Generate glue code for one binding source or for every configured job",
		Long: "With a source (argument or --source) compiles it against --host. Without one, runs the jobs\n" +
			"of --config (or ./xcompile.yaml), optionally narrowed with --job.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.source = args[0]
			}
			return a.runJobsCmd(cmd, opts, false)
		},
	}
	fs := cmd.Flags()
	addSourceFlags(cmd, &opts)
	fs.StringSliceVarP(&opts.targets, "target", "t", nil, "targets, comma separated: csharp,go,typescript,java (default output.targets)")
	fs.StringVarP(&opts.out, "out", "o", "", "output directory, - prints to stdout (default output.dir)")
	fs.StringVar(&opts.name, "name", "", "output base name (default the language name)")
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	var opts jobOptions
	cmd := &cobra.Command{
		Use:   "check [source]",
		Short: "Parse and resolve bindings without generating code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.source = args[0]
			}
			return a.runJobsCmd(cmd, opts, true)
		},
	}
	addSourceFlags(cmd, &opts)
	return cmd
}

func addSourceFlags(cmd *cobra.Command, opts *jobOptions) {
	fs := cmd.Flags()
	fs.StringVarP(&opts.language, "language", "l", "", "binding language (default inferred from the source extension)")
	fs.StringVarP(&opts.source, "source", "s", "", "binding source file")
	fs.StringVar(&opts.host, "host", "", "host manifest (.yaml/.json/.hujson) or source (.go/.java)")
	fs.StringVar(&opts.hostType, "host-type", "", "host type inside a .go/.java source")
	fs.StringSliceVar(&opts.jobs, "job", nil, "configured job names to run (default all)")
}

func (a *app) runJobsCmd(cmd *cobra.Command, opts jobOptions, check bool) error {
	if strings.TrimSpace(opts.source) == "" {
		cfg, err := a.requireConfig()
		if err != nil {
			return err
		}
		jobs, err := selectJobs(cfg, opts.jobs)
		if err != nil {
			return err
		}
		return a.runJobs(cmd, cfg, jobs, check)
	}
	if len(opts.jobs) > 0 {
		return errors.New("--job cannot be combined with a source file")
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	job, err := opts.job(cfg)
	if err != nil {
		return err
	}
	return a.runJobs(cmd, cfg, []config.Job{job}, check)
}

// job turns command line flags into a job. Paths are made absolute so they
// stay relative to the working directory rather than the config file.
func (o jobOptions) job(cfg *config.Config) (config.Job, error) {
	if strings.TrimSpace(o.host) == "" {
		return config.Job{}, errors.New("--host is required")
	}
	source, err := filepath.Abs(o.source)
	if err != nil {
		return config.Job{}, err
	}
	host, err := filepath.Abs(o.host)
	if err != nil {
		return config.Job{}, err
	}
	j := config.Job{
		Name:       strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)),
		Language:   strings.TrimSpace(o.language),
		Source:     source,
		Host:       host,
		HostType:   strings.TrimSpace(o.hostType),
		Targets:    o.targets,
		OutputName: strings.TrimSpace(o.name),
		OutputDir:  strings.TrimSpace(o.out),
	}
	if len(j.Targets) == 0 {
		j.Targets = append([]string(nil), cfg.Output.Targets...)
	}
	switch j.OutputDir {
	case "":
		j.OutputDir = cfg.Resolve(cfg.Output.Dir)
	case stdoutDir:
	default:
		if j.OutputDir, err = filepath.Abs(j.OutputDir); err != nil {
			return config.Job{}, err
		}
	}
	if _, err := j.ParsedTargets(); err != nil {
		return config.Job{}, err
	}
	return j, nil
}

func selectJobs(cfg *config.Config, names []string) ([]config.Job, error) {
	if len(cfg.Jobs) == 0 {
		return nil, errors.New("no jobs configured")
	}
	if len(names) == 0 {
		return cfg.Jobs, nil
	}
	out := make([]config.Job, 0, len(names))
	for _, name := range names {
		j, ok := cfg.Job(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("unknown job %q", name)
		}
		out = append(out, j)
	}
	return out, nil
}

// runJobs runs every job and keeps going after failures. Failures are
// printed as they happen.
func (a *app) runJobs(cmd *cobra.Command, cfg *config.Config, jobs []config.Job, check bool) error {
	mode := a.colorMode(cfg)
	r := &jobRunner{
		app:  a,
		cfg:  cfg,
		out:  logx.NewPrinter(cmd.OutOrStdout(), mode),
		errs: logx.NewPrinter(cmd.ErrOrStderr(), mode),
	}
	r.compiler = xcompile.New(
		xcompile.WithRegistry(a.reg),
		xcompile.WithLogger(a.logger(cmd, cfg)),
		xcompile.WithSink(r.errs.Sink()),
	)
	failed := 0
	for _, j := range jobs {
		if err := r.run(cmd, j, check); err != nil {
			failed++
		}
	}
	if failed > 0 {
		return errReported
	}
	return nil
}

type jobRunner struct {
	app      *app
	cfg      *config.Config
	compiler *xcompile.Compiler
	out      *logx.Printer
	errs     *logx.Printer
}

func (r *jobRunner) run(cmd *cobra.Command, j config.Job, check bool) error {
	req, err := r.request(j, check)
	if err != nil {
		r.errs.Error(fmt.Errorf("%s: %w", j.Name, err), "")
		return errReported
	}
	if check {
		res, err := r.compiler.Check(req)
		if err != nil {
			r.errs.Error(err, req.Source)
			return errReported
		}
		r.out.Checked(j.Name, res)
		return nil
	}
	res, err := r.compiler.Compile(req)
	if err != nil {
		r.errs.Error(err, req.Source)
		return errReported
	}
	if j.OutputDir == stdoutDir {
		for _, o := range res.Outputs {
			if _, err := cmd.OutOrStdout().Write(o.Content); err != nil {
				return err
			}
		}
		return nil
	}
	r.out.Result(j.Name, res)
	return nil
}

func (r *jobRunner) request(j config.Job, check bool) (xcompile.Request, error) {
	source := r.cfg.Resolve(j.Source)
	// #nosec G304 -- source path comes from trusted config/flags.
	src, err := os.ReadFile(source)
	if err != nil {
		return xcompile.Request{}, fmt.Errorf("read source: %w", err)
	}
	lang := strings.TrimSpace(j.Language)
	if lang == "" {
		name, ok := r.app.reg.ForExtension(filepath.Ext(source))
		if !ok {
			return xcompile.Request{}, fmt.Errorf("cannot infer a binding language for %s; set language", filepath.Base(source))
		}
		lang = name
	}
	host, err := hostsrc.Load(r.cfg.Resolve(j.Host), j.HostType)
	if err != nil {
		return xcompile.Request{}, fmt.Errorf("load host: %w", err)
	}
	req := xcompile.Request{
		Language:   lang,
		SourceName: source,
		Source:     string(src),
		Host:       host,
		OutputName: j.OutputName,
	}
	if check {
		return req, nil
	}
	if req.Targets, err = j.ParsedTargets(); err != nil {
		return xcompile.Request{}, err
	}
	if j.OutputDir != stdoutDir {
		req.OutputDir = r.cfg.Resolve(j.OutputDir)
	}
	return req, nil
}
