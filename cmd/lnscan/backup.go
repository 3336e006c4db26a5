package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/ellemouton/lnscan/chanbackup"
	"github.com/urfave/cli/v2"
)

var backupFileFlag = &cli.StringFlag{
	Name:     "file",
	Usage:    "path of the backup file",
	Required: true,
}

var backupCommand = &cli.Command{
	Name:  "backup",
	Usage: "Export, verify and restore static channel backups",
	Subcommands: []*cli.Command{
		{
			Name:   "export",
			Usage:  "Write the node's current backup to a file",
			Flags:  []cli.Flag{backupFileFlag},
			Action: exportBackup,
		},
		{
			Name:   "verify",
			Usage:  "Check a backup file against the node",
			Flags:  []cli.Flag{backupFileFlag},
			Action: verifyBackup,
		},
		{
			Name:   "restore",
			Usage:  "Restore the channels of a backup file",
			Flags:  []cli.Flag{backupFileFlag},
			Action: restoreBackup,
		},
	},
}

func exportBackup(ctx *cli.Context) error {
	wallet, err := getWallet(ctx)
	if err != nil {
		return err
	}

	file, err := wallet.Backups().Export(ctx.Context)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(file, "", "    ")
	if err != nil {
		return err
	}

	if err := ioutil.WriteFile(ctx.String("file"), b, 0600); err != nil {
		return err
	}

	fmt.Printf("Exported backup of %d channels to %v\n",
		len(file.ChanPoints), ctx.String("file"))

	return nil
}

func readBackup(ctx *cli.Context) (*chanbackup.File, error) {
	data, err := ioutil.ReadFile(ctx.String("file"))
	if err != nil {
		return nil, err
	}

	return chanbackup.ParseFile(data)
}

func verifyBackup(ctx *cli.Context) error {
	file, err := readBackup(ctx)
	if err != nil {
		return err
	}

	wallet, err := getWallet(ctx)
	if err != nil {
		return err
	}

	report, err := wallet.Backups().Verify(ctx.Context, file)
	if err != nil {
		return err
	}

	for _, p := range report.Verified {
		fmt.Printf("open:   %v\n", p)
	}
	for _, p := range report.Closed {
		fmt.Printf("closed: %v\n", p)
	}
	if report.Skipped > 0 {
		fmt.Printf("%d undecodable entries skipped\n", report.Skipped)
	}

	return nil
}

func restoreBackup(ctx *cli.Context) error {
	file, err := readBackup(ctx)
	if err != nil {
		return err
	}

	wallet, err := getWallet(ctx)
	if err != nil {
		return err
	}

	if err := wallet.Backups().RestoreFile(ctx.Context, file); err != nil {
		return err
	}

	fmt.Printf("Restore of %d channels started\n", len(file.ChanPoints))

	return nil
}
