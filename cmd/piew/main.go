package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/afero"

	"piew/internal/config"
	"piew/internal/sched"
	"piew/internal/session"
	"piew/internal/viewer"
)

// sourceArgs falls back to the current directory when no paths are given.
func sourceArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [FILES...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	sources := sourceArgs(flag.Args())

	result := config.Load()
	for _, w := range result.Warnings {
		log.Printf("Warning: %s", w)
	}
	cfg := result.Config

	scheduler := sched.NewStepScheduler()
	s := session.New(afero.NewOsFs(), scheduler, cfg)
	s.Open(sources)
	if _, ok := s.CurrentPath(); !ok {
		log.Fatal("no image files found")
	}

	v := viewer.New(s, scheduler, cfg)

	ebiten.SetWindowTitle("piew")
	ebiten.SetWindowSize(cfg.WindowWidth, cfg.WindowHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if cfg.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
	config.Save(v.CurrentConfig())
}
