// ABOUTME: serve subcommand
// ABOUTME: Runs the REST API with metrics until interrupted
package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/harperreed/orgmap/directory"
	"github.com/harperreed/orgmap/web"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.ValidateAuth(); err != nil {
				return withCode(exitUsage, err)
			}
			if addr == "" {
				addr = a.cfg.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			svc, store, err := a.openService(ctx, directory.WithMetrics(directory.NewMetrics(reg)))
			if err != nil {
				return err
			}
			defer store.Close()

			srv := web.NewServer(svc, a.log, web.Options{
				Secret:      []byte(a.cfg.JWTSecret),
				CORSOrigins: a.cfg.CORSOrigins,
				MetricsPath: a.cfg.MetricsPath,
				Registry:    reg,
				Agent:       &web.SearchAgent{Service: svc},
			})
			a.log.WithField("addr", addr).WithField("store", a.cfg.Store).Info("orgmap api listening")
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: ORGMAP_ADDR)")
	return cmd
}
