// Command udptestserver is a small UDP echo server used to exercise the
// UDP dispatch path end to end, mirroring
// original_source/tools/udp-test-server.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/kubernetes-sigs/blixt/internal/log"
)

func main() {
	var addr string

	cmd := &cobra.Command{
		Use:   "udptestserver",
		Short: "Echo UDP datagrams back to the sender",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9999", "address to listen on")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(addr string) error {
	logger := log.For("udptestserver")

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	defer conn.Close()

	logger.WithField("addr", addr).Info("echoing udp datagrams")

	buf := make([]byte, 65535)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			logger.WithError(err).Warn("read failed")
			continue
		}
		if _, err := conn.WriteToUDP(buf[:n], from); err != nil {
			logger.WithError(err).Warn("write failed")
		}
	}
}
