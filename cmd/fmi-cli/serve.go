package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/luxfi/securesearch/pkg/party"
)

var servePartyID int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Listen for ring-neighbor connections as one party",
	Long: `Opens a TCP listener on this party's roster address and accepts its
ring neighbors' connections, and returns once both are connected; it does
not keep the connections open or run the protocol itself. Intended to be started before "fmi-cli query
--party N" dials out, mirroring a real three-process deployment (spec.md
§6.4's "a triple of channels" requirement, realized here over TCP rather
than the in-process simulation "query --simulate" uses).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePartyID, "party", -1, "Party ID (0, 1 or 2) this process listens as")
	serveCmd.MarkFlagRequired("party")
}

func runServe(cmd *cobra.Command, args []string) error {
	if servePartyID < 0 || servePartyID > 2 {
		return fmt.Errorf("--party must be 0, 1 or 2")
	}
	id := party.ID(servePartyID)

	roster, err := readRoster()
	if err != nil {
		return err
	}
	addr, err := roster.AddressOf(id)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	defer ln.Close()
	fmt.Printf("party %s listening on %s, waiting for ring neighbors to dial in\n", id, addr)

	conns := make(chan net.Conn, 2)
	errs := make(chan error, 2)
	go acceptTwo(ln, conns, errs)

	select {
	case err := <-errs:
		return fmt.Errorf("accepting ring connections: %w", err)
	case <-waitForTwo(conns):
		fmt.Printf("party %s has both ring neighbors connected\n", id)
	}
	return nil
}

func acceptTwo(ln net.Listener, conns chan<- net.Conn, errs chan<- error) {
	for i := 0; i < 2; i++ {
		c, err := ln.Accept()
		if err != nil {
			errs <- err
			return
		}
		conns <- c
	}
}

func waitForTwo(conns <-chan net.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		<-conns
		<-conns
		close(done)
	}()
	return done
}
