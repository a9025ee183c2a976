// Command loader is the process that attaches the classifiers to an
// interface and serves the control-plane RPC and healthz endpoints.
// Command layout (root command, persistent flags, cobra.OnInitialize for
// logging, nested serve subcommands for each TLS mode) is modeled on
// cuemby-warren/cmd/warren/main.go.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kubernetes-sigs/blixt/internal/dataplane/loader"
	"github.com/kubernetes-sigs/blixt/internal/healthz"
	"github.com/kubernetes-sigs/blixt/internal/log"
	"github.com/kubernetes-sigs/blixt/internal/metrics"
	"github.com/kubernetes-sigs/blixt/internal/routing"
	"github.com/kubernetes-sigs/blixt/internal/rpc"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	iface       string
	forceReload bool
	logLevel    string
	rpcAddr     string
	healthzAddr string
)

func main() {
	root := &cobra.Command{
		Use:   "loader",
		Short: "Attach blixt's classifiers and serve its control plane",
	}

	root.PersistentFlags().StringVar(&iface, "iface", "lo", "interface to attach the classifiers to")
	root.PersistentFlags().BoolVar(&forceReload, "load-ebpf", false, "remove any existing pins and reload the classifiers from scratch")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (panic, fatal, error, warn, info, debug, trace)")
	root.PersistentFlags().StringVar(&rpcAddr, "rpc-addr", ":9874", "address the Backends gRPC service listens on")
	root.PersistentFlags().StringVar(&healthzAddr, "healthz-addr", ":9875", "address the healthz/metrics server listens on")

	cobra.OnInitialize(func() {
		viper.AutomaticEnv()
		if err := log.Init(log.Config{Level: logLevel}); err != nil {
			fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", logLevel, err)
			os.Exit(1)
		}
	})

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the control plane in one of three TLS modes",
	}
	serve.AddCommand(
		serveCommand("none", nil),
		serveCommand("server-tls", serverTLSFlags()),
		serveCommand("mutual-tls", mutualTLSFlags()),
	)
	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

type tlsFlagSet struct {
	certFile string
	keyFile  string
	caFile   string
}

func serverTLSFlags() func(*cobra.Command) *tlsFlagSet {
	return func(cmd *cobra.Command) *tlsFlagSet {
		f := &tlsFlagSet{}
		cmd.Flags().StringVar(&f.certFile, "cert-file", "", "server certificate (PEM)")
		cmd.Flags().StringVar(&f.keyFile, "key-file", "", "server private key (PEM)")
		return f
	}
}

func mutualTLSFlags() func(*cobra.Command) *tlsFlagSet {
	return func(cmd *cobra.Command) *tlsFlagSet {
		f := &tlsFlagSet{}
		cmd.Flags().StringVar(&f.certFile, "cert-file", "", "server certificate (PEM)")
		cmd.Flags().StringVar(&f.keyFile, "key-file", "", "server private key (PEM)")
		cmd.Flags().StringVar(&f.caFile, "ca-file", "", "CA bundle client certificates must chain to (PEM)")
		return f
	}
}

// serveCommand builds one of the three "serve <mode>" subcommands spec.md
// §6 requires. registerFlags is nil for the "none" mode, which needs no
// certificate flags.
func serveCommand(name string, registerFlags func(*cobra.Command) *tlsFlagSet) *cobra.Command {
	var flags *tlsFlagSet

	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Serve the control plane with TLS mode %q", name),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(name, flags)
		},
	}

	if registerFlags != nil {
		flags = registerFlags(cmd)
	}

	return cmd
}

func run(mode string, flags *tlsFlagSet) error {
	logger := log.For("loader")

	sup := loader.NewSupervisor(loader.Config{Interface: iface, ForceReload: forceReload})
	if err := sup.Attach(); err != nil {
		return fmt.Errorf("attaching classifiers: %w", err)
	}
	defer sup.Close()

	var tlsOpts *rpc.TLSOptions
	switch mode {
	case "server-tls":
		tlsOpts = &rpc.TLSOptions{Mode: rpc.TLSModeServer, CertFile: flags.certFile, KeyFile: flags.keyFile}
	case "mutual-tls":
		tlsOpts = &rpc.TLSOptions{Mode: rpc.TLSModeMutual, CertFile: flags.certFile, KeyFile: flags.keyFile, CAFile: flags.caFile}
	}

	rpcServer, err := rpc.NewServer(sup.Tables(), routing.Netlink{}, tlsOpts)
	if err != nil {
		return fmt.Errorf("building rpc server: %w", err)
	}

	if _, err := metrics.NewTableGauges(prometheus.DefaultRegisterer, sup.Tables()); err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	healthzServer := healthz.NewServer(sup)
	go func() {
		if err := healthzServer.Start(healthzAddr); err != nil {
			logger.WithError(err).Error("healthz server exited")
		}
	}()

	logger.WithField("mode", mode).Info("starting control plane")
	return rpcServer.Start(rpcAddr)
}
