package rpc

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/kubernetes-sigs/blixt/internal/errs"
)

// TLSMode selects one of the three serve subcommands spec.md §6 names.
type TLSMode int

const (
	// TLSModeNone serves plaintext gRPC (the "serve none" subcommand).
	TLSModeNone TLSMode = iota
	// TLSModeServer authenticates the server only ("serve server-tls").
	TLSModeServer
	// TLSModeMutual authenticates both server and client ("serve mutual-tls").
	TLSModeMutual
)

// TLSOptions configures the transport Server listens on. A nil *TLSOptions
// is equivalent to TLSModeNone.
type TLSOptions struct {
	Mode     TLSMode
	CertFile string
	KeyFile  string
	CAFile   string // required for TLSModeMutual, to verify client certs
}

// grpcServerOptions builds the grpc.ServerOption slice for opts, loading
// certificate material the way cuemby-warren's NewServer does for its own
// mTLS listener.
func (opts *TLSOptions) grpcServerOptions() ([]grpc.ServerOption, error) {
	if opts == nil || opts.Mode == TLSModeNone {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(opts.CertFile, opts.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("loading server cert/key: %w", err)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
	}

	if opts.Mode == TLSModeMutual {
		caPEM, err := os.ReadFile(opts.CAFile)
		if err != nil {
			return nil, fmt.Errorf("%w: reading ca file: %v", errs.ErrTransport, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("%w: ca file contains no usable certificates", errs.ErrTransport)
		}
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		cfg.ClientCAs = pool
	}

	return []grpc.ServerOption{grpc.Creds(credentials.NewTLS(cfg))}, nil
}
