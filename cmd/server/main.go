package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/qnkhuat/termground/pkg"
)

func main() {
	tcpAddr := flag.String("listen-tcp", pkg.ServerPort, "address clients connect to")
	sshAddr := flag.String("listen-ssh", "", "serve chessterm over ssh on this address, e.g. "+pkg.SshPort)
	chessterm := flag.String("chessterm", "chessterm", "client binary started for ssh sessions")
	hostKey := flag.String("host-key", "", "ssh host key file, generated when empty")
	clock := flag.Duration("clock", 5*time.Minute, "time per side, 0 for untimed games")
	increment := flag.Duration("increment", 3*time.Second, "time added after each move")
	logPath := flag.String("log", "", "path to log file, stderr when empty")
	debug := flag.Bool("debug", false, "log every message")
	flag.Parse()

	logger := pkg.ConsoleLog("SERVER", *debug)
	if *logPath != "" {
		l, f, err := pkg.InitLog(*logPath, "SERVER", *debug)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		logger = l
	}

	s := pkg.NewServer(pkg.ServerConfig{
		TCPAddr:     *tcpAddr,
		SSHAddr:     *sshAddr,
		HostKeyFile: *hostKey,
		Chessterm:   *chessterm,
		Clock:       *clock,
		Increment:   *increment,
		Logger:      logger,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	listener, err := net.Listen("tcp", *tcpAddr)
	if err != nil {
		log.Fatal(err)
	}

	title := color.New(color.FgGreen, color.Bold)
	title.Fprintln(os.Stderr, "termground server")
	color.New(color.FgCyan).Fprintf(os.Stderr, "  matches  %s\n", listener.Addr())
	if *sshAddr != "" {
		color.New(color.FgCyan).Fprintf(os.Stderr, "  ssh      %s\n", *sshAddr)
		go func() {
			if err := s.ListenSSH(); err != nil {
				logger.Error().Err(err).Msg("ssh")
				cancel()
			}
		}()
	}

	go s.CleanIdleMatches(ctx, time.Minute)
	if err := s.Serve(ctx, listener); err != nil {
		logger.Error().Err(err).Msg("serve")
	}

	shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := s.Shutdown(shutdown); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("server stopped")
}
