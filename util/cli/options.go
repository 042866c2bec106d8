package cli

import (
	"flag"
)

type Options struct {
	Action    string
	GenreID   int64
	PrintHelp bool
	UserID    string
}

var opts = Options{}

var EnvMessage = `This requires the following environment vars:

LIBRARY_CONFIG_DIR - Path to the directory containing the .env settings file.

LIBRARY_ENV - Name of the configuration to load. For example:
    test - Loads .env.test from LIBRARY_CONFIG_DIR
    demo - Loads .env.demo from LIBRARY_CONFIG_DIR
`

func Init() {
	flag.StringVar(&opts.Action, "action", "scan-orphans", "One of: scan-orphans, purge-orphans, scan-broken, purge-broken, rectify")
	flag.Int64Var(&opts.GenreID, "genre-id", 0, "Default genre id for records created by the rectify action (0 = no genre)")
	flag.BoolVar(&opts.PrintHelp, "help", false, "Print help message")
	flag.StringVar(&opts.UserID, "user", "", "Limit the scan to one user's records; omit for the whole catalog")
}

func ParseOpts() Options {
	flag.Parse()
	return opts
}

func PrintDefaults() {
	flag.PrintDefaults()
}
