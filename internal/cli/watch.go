package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/r9s-ai/xcompile/internal/watch"
	"github.com/r9s-ai/xcompile/pkg/config"
)

const defaultWatchDebounce = 300 * time.Millisecond

func newWatchCmd(a *app) *cobra.Command {
	var jobs []string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Compile configured jobs and recompile them when a source or host file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.requireConfig()
			if err != nil {
				return err
			}
			selected, err := selectJobs(cfg, jobs)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, cmd, cfg, selected)
		},
	}
	cmd.Flags().StringSliceVar(&jobs, "job", nil, "configured job names to watch (default all)")
	return cmd
}

// watch runs jobs once, then reruns the jobs reading a changed file until ctx
// is done. Compile failures are printed and never stop the loop.
func (a *app) watch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, jobs []config.Job) error {
	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	_ = a.runJobs(cmd, cfg, jobs, false)

	files := watch.Files{}
	byName := make(map[string]config.Job, len(jobs))
	for _, j := range jobs {
		files.Add(cfg.Resolve(j.Source), j.Name)
		files.Add(cfg.Resolve(j.Host), j.Name)
		byName[j.Name] = j
	}
	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = defaultWatchDebounce
	}

	var mu sync.Mutex
	w, err := watch.Start(files, debounce, logger, func(keys []string) {
		mu.Lock()
		defer mu.Unlock()
		changed := make([]config.Job, 0, len(keys))
		for _, k := range keys {
			if j, ok := byName[k]; ok {
				changed = append(changed, j)
			}
		}
		if len(changed) == 0 {
			return
		}
		_ = a.runJobs(cmd, cfg, changed, false)
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	logger.Printf("watching %d files for %d jobs", len(files), len(jobs))

	<-ctx.Done()
	return nil
}
