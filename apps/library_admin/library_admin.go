package main

import (
	"fmt"
	"os"

	"github.com/tunevault/library-services/api"
	"github.com/tunevault/library-services/models/common"
	"github.com/tunevault/library-services/util/cli"
)

func main() {
	cli.Init()
	opts := cli.ParseOpts()
	if opts.PrintHelp {
		printHelp()
		cli.PrintDefaults()
		os.Exit(0)
	}

	// If anything is misconfigured, this panics.
	context := common.NewContext()
	server := api.NewServer(context, api.NewAPIKeyVerifier(context.Config.AdminAPIKey))
	if err := server.ListenAndServe(); err != nil {
		context.Logger.Errorf("Admin API server stopped: %v", err)
		os.Exit(1)
	}
}

func printHelp() {
	message := `
library_admin serves the admin HTTP API for library maintenance:
scanning for orphaned objects and broken catalog records, purging
them, and rectifying orphans back into the catalog.
`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
