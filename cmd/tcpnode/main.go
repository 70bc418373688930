// Command tcpnode runs a bare connection-management node with no
// protocol handlers registered: it accepts inbound connections until
// interrupted, but does not dial any peer and does not speak any
// application protocol. It exposes tcp.Config's fields as CLI flags
// (all except HandlerTimeout), in the same vein as the Flags() surface
// teacher services expose.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/urfave/cli.v1"

	"github.com/drep-project/tcpnode/tcp"
)

func main() {
	app := cli.NewApp()
	app.Name = "tcpnode"
	app.Usage = "run a standalone connection-management node"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "name", Usage: "node name shown in logs"},
		cli.StringFlag{Name: "listen-ip", Value: "0.0.0.0", Usage: "address to bind for inbound connections"},
		cli.IntFlag{Name: "listen-port", Usage: "preferred listening port (0 lets the OS choose)"},
		cli.BoolFlag{Name: "allow-random-port", Usage: "fall back to a random port if listen-port is busy or unset"},
		cli.IntFlag{Name: "max-connections", Value: 50, Usage: "cap on active + pending connections"},
		cli.StringFlag{Name: "known-peers-db", Usage: "leveldb path for durable known-peer stats (empty: in-memory only)"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg := tcp.Config{
		Name:                c.String("name"),
		ListenerIP:          net.ParseIP(c.String("listen-ip")),
		AllowRandomPort:     c.Bool("allow-random-port"),
		MaxConnections:      uint16(c.Int("max-connections")),
		KnownPeersStorePath: c.String("known-peers-db"),
	}
	if port := c.Int("listen-port"); port != 0 {
		p := uint16(port)
		cfg.DesiredListeningPort = &p
	} else if !cfg.AllowRandomPort {
		cfg.AllowRandomPort = true
	}

	node, err := tcp.New(cfg)
	if err != nil {
		return err
	}

	if addr, err := node.ListeningAddr(); err == nil {
		fmt.Printf("tcpnode %s listening on %s\n", node.Name(), addr)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	node.ShutDown()
	return nil
}
