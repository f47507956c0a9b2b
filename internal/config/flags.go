package config

import (
	"flag"
	"strings"
)

// Flag values shared by every subcommand. A value only overrides the config
// when its flag was given on the command line.
var (
	flagSet *flag.FlagSet

	flagConfig    string
	flagDebug     bool
	flagLogFile   string
	flagRoots     rootList
	flagWorkers   int
	flagNoCache   bool
	flagFormat    string
	flagMaxSize   int
	flagColorKey  string
	flagTolerance int
	flagFlipV     bool
	flagNormals   bool
	flagIndexed   bool
)

// rootList collects repeated -root flags.
type rootList []string

func (r *rootList) String() string {
	return strings.Join(*r, ",")
}

func (r *rootList) Set(v string) error {
	*r = append(*r, v)
	return nil
}

// RegisterFlags binds the config override flags to fs.
// Call it before parsing a subcommand's flag set.
func RegisterFlags(fs *flag.FlagSet) {
	flagSet = fs
	flagRoots = nil
	fs.StringVar(&flagConfig, "config", "", "Path to config file")
	fs.BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	fs.StringVar(&flagLogFile, "log-file", "", "Also write logs to this file")
	fs.Var(&flagRoots, "root", "Asset root directory (repeatable, last wins)")
	fs.IntVar(&flagWorkers, "workers", 0, "Number of concurrent decoders")
	fs.BoolVar(&flagNoCache, "no-cache", false, "Disable the decoded asset cache")
	fs.StringVar(&flagFormat, "format", "", "Output format: png, webp, tga")
	fs.IntVar(&flagMaxSize, "max-size", 0, "Downscale textures so neither side exceeds this")
	fs.StringVar(&flagColorKey, "color-key", "", "Transparency key: magenta or #rrggbb")
	fs.IntVar(&flagTolerance, "tolerance", 0, "Per-channel color key tolerance")
	fs.BoolVar(&flagFlipV, "flip-v", false, "Flip texture v coordinates of meshes")
	fs.BoolVar(&flagNormals, "normals", true, "Generate face normals for corners without one (-normals=false to keep zeros)")
	fs.BoolVar(&flagIndexed, "indexed", false, "Merge identical mesh vertices into an index buffer")
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return flagConfig
}

// setFlags returns the names of the flags given on the command line.
func setFlags() map[string]bool {
	set := make(map[string]bool)
	if flagSet != nil {
		flagSet.Visit(func(f *flag.Flag) {
			set[f.Name] = true
		})
	}
	return set
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	set := setFlags()

	if set["debug"] && flagDebug {
		cfg.Logging.Level = "debug"
	}
	if set["log-file"] {
		cfg.Logging.LogFile = flagLogFile
	}
	if set["root"] {
		cfg.Assets.Roots = append([]string(nil), flagRoots...)
	}
	if set["workers"] {
		cfg.Assets.Workers = flagWorkers
	}
	if set["no-cache"] {
		cfg.Assets.Cache = !flagNoCache
	}
	if set["format"] {
		cfg.Convert.Format = flagFormat
	}
	if set["max-size"] {
		cfg.Convert.MaxSize = flagMaxSize
	}
	if set["color-key"] {
		cfg.Convert.ColorKey = flagColorKey
	}
	if set["tolerance"] {
		cfg.Convert.ColorTolerance = flagTolerance
	}
	if set["flip-v"] {
		cfg.Mesh.FlipV = flagFlipV
	}
	if set["normals"] {
		cfg.Mesh.GenerateNormals = flagNormals
	}
	if set["indexed"] {
		cfg.Mesh.Indexed = flagIndexed
	}
}
