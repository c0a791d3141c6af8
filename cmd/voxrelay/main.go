// Package main is voxrelay's daemon entrypoint: load configuration, build
// the plugin registry, and forward client connections to the upstream
// assistant server through a proxy.Pair apiece.
/*
 * Copyright (c) 2018-2023, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelsonai/voxrelay/cfg"
	"github.com/kelsonai/voxrelay/cmn/nlog"
	"github.com/kelsonai/voxrelay/dispatch"
	_ "github.com/kelsonai/voxrelay/dispatch/plugin/builtin"
	"github.com/kelsonai/voxrelay/iface"
	"github.com/kelsonai/voxrelay/proxy"
	"github.com/kelsonai/voxrelay/stats"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "path to voxrelay's YAML configuration file")
	nlog.InitFlags(flag.CommandLine)
}

func main() {
	flag.Parse()

	c := cfg.Default()
	if configPath != "" {
		loaded, err := cfg.Load(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "voxrelay: %v\n", err)
			os.Exit(1)
		}
		c = loaded
	}
	nlog.SetLogDir(c.Logging.LogDir)
	nlog.SetDebugLevel(c.Logging.DebugLevel)

	plugins, pluginNames, err := loadPlugins(c.General.PluginsDir)
	if err != nil {
		nlog.Errorf("voxrelay: loading plugins: %v", err)
		os.Exit(1)
	}
	nlog.Debugj(1, "voxrelay: loaded plugins", pluginNames)
	d, err := dispatch.NewDispatcher(c.Responses, plugins...)
	if err != nil {
		nlog.Errorf("voxrelay: building dispatcher: %v", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	installSignalHandler(cancel)

	status := proxy.NewStatusPage(pluginNames)
	go serveMetrics(c.Metrics.Addr)
	go serveStatus(status, c.Metrics.StatusAddr)

	ln, err := listenTLS(c.IPhone.Host, c.IPhone.Port, c.IPhone.CertFile, c.IPhone.KeyFile)
	if err != nil {
		nlog.Errorf("voxrelay: listening on %s:%d: %v", c.IPhone.Host, c.IPhone.Port, err)
		os.Exit(1)
	}
	defer ln.Close()

	dialer := tlsDialer{}
	upstreamAddr := fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)

	nlog.Infof("voxrelay: listening on %s:%d, forwarding to %s", c.IPhone.Host, c.IPhone.Port, upstreamAddr)
	acceptLoop(ctx, ln, dialer, upstreamAddr, d, status, c.General.ExitOnConnectionLost)
}

// loadPlugins scans dir for configured plugin manifests and also returns
// their names for the status page to report.
func loadPlugins(dir string) (plugins []dispatch.Plugin, names []string, err error) {
	if dir == "" {
		return nil, nil, nil
	}
	plugins, err = dispatch.LoadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, p := range plugins {
		names = append(names, p.Name())
	}
	return plugins, names, nil
}

// acceptLoop accepts client connections one at a time and hands each to
// its own Pair, dialing the upstream fresh per connection the way a
// forwarding proxy that can't multiplex a single upstream session across
// clients must.
func acceptLoop(ctx context.Context, ln iface.Listener, dialer tlsDialer, upstreamAddr string, d *dispatch.Dispatcher, status *proxy.StatusPage, exitOnLost bool) {
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := ln.Accept()
		if err != nil {
			nlog.Warningf("voxrelay: accept: %v", err)
			continue
		}
		go func() {
			if err := handleConn(ctx, conn, dialer, upstreamAddr, d, status); err != nil {
				nlog.Warningf("voxrelay: connection ended: %v", err)
				if exitOnLost {
					os.Exit(1)
				}
			}
		}()
	}
}

func handleConn(ctx context.Context, client iface.Conn, dialer tlsDialer, upstreamAddr string, d *dispatch.Dispatcher, status *proxy.StatusPage) error {
	defer client.Close()

	upstream, err := dialer.DialUpstream(ctx, upstreamAddr)
	if err != nil {
		return fmt.Errorf("dial upstream: %w", err)
	}
	defer upstream.Close()

	status.PairStarted()
	defer status.PairStopped()

	return proxy.New(client, upstream, d).Run(ctx)
}

func serveMetrics(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", stats.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		nlog.Errorf("voxrelay: metrics listener on %s: %v", addr, err)
	}
}

func serveStatus(status *proxy.StatusPage, addr string) {
	if addr == "" {
		return
	}
	if err := status.ListenAndServe(addr); err != nil {
		nlog.Errorf("voxrelay: status listener on %s: %v", addr, err)
	}
}

func installSignalHandler(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		nlog.Infof("voxrelay: shutting down")
		nlog.Flush()
		cancel()
	}()
}

// listenTLS wraps a TLS listener as an iface.Listener: *tls.Conn already
// satisfies iface.Conn's method set, so Accept only needs to widen the
// return type.
func listenTLS(host string, port int, certFile, keyFile string) (iface.Listener, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("load cert/key: %w", err)
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := tls.Listen("tcp", addr, &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		return nil, err
	}
	return &tlsListener{ln: ln}, nil
}

type tlsListener struct{ ln net.Listener }

func (t *tlsListener) Accept() (iface.Conn, error) {
	conn, err := t.ln.Accept()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (t *tlsListener) Close() error { return t.ln.Close() }
func (t *tlsListener) Addr() string { return t.ln.Addr().String() }

// tlsDialer implements iface.Dialer by wrapping tls.Dialer; it carries no
// state beyond what DialUpstream needs per call, since voxrelay dials the
// same upstream for every client with default TLS verification.
type tlsDialer struct{}

func (tlsDialer) DialUpstream(ctx context.Context, hostPort string) (iface.Conn, error) {
	d := &tls.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", hostPort)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
