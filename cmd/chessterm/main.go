package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/qnkhuat/termground/pkg"
	"github.com/qnkhuat/termground/pkg/ground"
	"github.com/qnkhuat/termground/pkg/gui"
	"github.com/qnkhuat/termground/pkg/oracle"
)

func parseCoords(s string) (ground.CoordsMode, error) {
	switch s {
	case "none":
		return ground.CoordsNone, nil
	case "standard":
		return ground.CoordsStandard, nil
	case "symmetric":
		return ground.CoordsSymmetric, nil
	}
	return ground.CoordsNone, fmt.Errorf("unknown coordinates %q", s)
}

func parsePromotion(s string) (ground.Role, error) {
	if len(s) == 1 {
		switch r := ground.RoleFromLetter(s[0]); r {
		case ground.Queen, ground.Rook, ground.Bishop, ground.Knight:
			return r, nil
		}
	}
	return ground.NoRole, fmt.Errorf("unknown promotion %q", s)
}

func main() {
	logPath := flag.String("log", "./chessterm.log", "path to log file")
	connect := flag.String("connect", "", "match server address; play locally when empty")
	matchId := flag.String("match", "", "match to join, a new one when empty")
	name := flag.String("name", "", "player name")
	fen := flag.String("fen", "", "starting position for local play")
	orientation := flag.String("orientation", "white", "side at the bottom for local play")
	animation := flag.Duration("animation", 200*time.Millisecond, "piece animation duration, 0 disables")
	premove := flag.Bool("premove", true, "allow premoves")
	promotion := flag.String("promotion", "q", "piece pawns promote to: q, r, b or n")
	coords := flag.String("coords", "standard", "coordinates: none, standard or symmetric")
	themeName := flag.String("theme", "basic", "board theme")
	debug := flag.Bool("debug", false, "log every gesture")
	flag.Parse()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "chessterm needs an interactive terminal")
		os.Exit(1)
	}

	logger, f, err := pkg.InitLog(*logPath, "CLIENT", *debug)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	cfg := ground.DefaultConfig()
	cfg.Animation.Enabled = *animation > 0
	cfg.Animation.Duration = *animation
	cfg.Premovable.Enabled = *premove
	// distances are in terminal cells
	cfg.Draggable.Distance = 1
	if cfg.Coordinates, err = parseCoords(*coords); err != nil {
		log.Fatal(err)
	}
	if *orientation == "black" {
		cfg.Orientation = ground.Black
	}
	promote, err := parsePromotion(*promotion)
	if err != nil {
		log.Fatal(err)
	}
	theme, err := gui.ImportThemes(*themeName, nil)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cl := pkg.NewClient(pkg.ClientConfig{Board: cfg, Color: ground.Both, Promotion: promote, Logger: logger})
	defer cl.Close()
	if *connect != "" {
		err = cl.Connect(ctx, *connect, *matchId, *name)
	} else {
		err = cl.Play(ctx, oracle.NewLocal(logger), *fen)
	}
	if err != nil {
		log.Fatal(err)
	}
	logger.Info().Str("server", *connect).Msg("new client")

	app := gui.NewApp(cl, theme)
	go func() {
		<-ctx.Done()
		app.Stop()
	}()
	if err := app.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("app")
	}
}
