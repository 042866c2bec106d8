package main

import (
	ctx "context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tunevault/library-services/models/common"
	"github.com/tunevault/library-services/models/service"
	"github.com/tunevault/library-services/reconcile"
	"github.com/tunevault/library-services/util"
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
	pidFile := filepath.Join(context.Config.PidFileDir, "reconcile.pid")
	if util.AnotherRunIsActive(pidFile) {
		fmt.Fprintln(os.Stderr, "Another reconciliation run is active. Exiting.")
		os.Exit(1)
	}
	if err := util.WritePidFile(pidFile); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot write pid file %s: %v\n", pidFile, err)
		os.Exit(1)
	}
	defer util.DeletePidFile(pidFile)

	scope := service.GlobalScope()
	if opts.UserID != "" {
		scope = service.UserScope(opts.UserID)
	}

	engine := reconcile.NewEngine(context)
	result, err := runAction(engine, opts, scope)
	if err != nil {
		context.Logger.Errorf("Action %s failed: %v", opts.Action, err)
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", opts.Action, err)
		util.DeletePidFile(pidFile)
		os.Exit(1)
	}
	printResult(result)
}

func runAction(engine *reconcile.Engine, opts cli.Options, scope service.Scope) (interface{}, error) {
	c := ctx.Background()
	switch opts.Action {
	case "scan-orphans":
		return engine.FindOrphans(c, scope)
	case "purge-orphans":
		scan, err := engine.FindOrphans(c, scope)
		if err != nil {
			return nil, err
		}
		return engine.PurgeOrphans(c, scan.OrphanKeys), nil
	case "scan-broken":
		return engine.FindBrokenRecords(c, scope)
	case "purge-broken":
		scan, err := engine.FindBrokenRecords(c, scope)
		if err != nil {
			return nil, err
		}
		return engine.PurgeBrokenRecords(scan.BrokenRecords)
	case "rectify":
		if opts.UserID == "" {
			return nil, fmt.Errorf("rectify requires -user: new records need an owner")
		}
		scan, err := engine.FindOrphans(c, scope)
		if err != nil {
			return nil, err
		}
		var genreID *int64
		if opts.GenreID > 0 {
			genreID = &opts.GenreID
		}
		return engine.RectifyOrphans(c, scan.OrphanKeys, opts.UserID, genreID), nil
	}
	return nil, fmt.Errorf("unknown action %q", opts.Action)
}

func printResult(result interface{}) {
	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Println(result)
		return
	}
	fmt.Println(string(jsonData))
}

func printHelp() {
	message := `
reconcile runs one library reconciliation action from the command line:
scanning for orphaned storage objects or broken catalog records,
purging either, or rectifying orphans into new catalog records.
Purge actions re-scan immediately before deleting anything.
`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
