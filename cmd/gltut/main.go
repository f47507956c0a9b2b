// gltut is a CLI utility for inspecting, validating, and converting the
// BMP textures and OBJ meshes used by the OpenGL tutorial programs.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/gltut/internal/config"
	"github.com/Faultbox/gltut/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// command is one gltut subcommand. It writes results to stdout and returns
// an error to make the process exit non-zero.
type command struct {
	usage string
	flags func(fs *flag.FlagSet)
	run   func(env *env, args []string) error
}

// env is what every command receives after setup.
type env struct {
	cfg    *config.Config
	stdout io.Writer
}

// errFailed reports a failure that has already been printed.
var errFailed = errors.New("failed")

var commands = map[string]*command{
	"info":     {usage: "info <file>", run: cmdInfo},
	"validate": {usage: "validate [dir...]", run: cmdValidate},
	"convert":  {usage: "convert <in.bmp> [out.png|.webp|.tga]", run: cmdConvert},
	"mesh":     {usage: "mesh <in.obj>", flags: meshFlags, run: cmdMesh},
	"watch":    {usage: "watch [dir...]", run: cmdWatch},
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 1
	}

	name, args := args[0], args[1:]
	switch name {
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", name)
		printUsage(stderr)
		return 1
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: gltut %s [options]\n\nOptions:\n", cmd.usage)
		fs.PrintDefaults()
	}
	config.RegisterFlags(fs)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Config error: %v\n", err)
		return 1
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	if err := cmd.run(&env{cfg: cfg, stdout: stdout}, fs.Args()); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `gltut - texture and mesh asset utility

Usage:
  gltut <command> [options] [args]

Commands:
  info <file>                          Show BMP header or OBJ geometry summary
  validate [dir...]                    Decode every asset under the roots
  convert <in.bmp> [out.png|webp|tga]  Convert a BMP texture
  mesh <in.obj>                        Build a vertex buffer and show its layout
  watch [dir...]                       Report and re-decode assets as they change

Common options:
  -config <file>     Config file (default ./gltut.yaml, then user config dir)
  -root <dir>        Asset root, repeatable; later roots win
  -debug             Enable debug logging

Examples:
  gltut info textures/uvtemplate.bmp
  gltut validate -workers 8 assets
  gltut convert -max-size 256 -color-key magenta wall.bmp wall.webp
  gltut mesh -indexed -out cube.bin cube.obj`)
}
