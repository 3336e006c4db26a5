package main

import (
	"fmt"

	"github.com/ellemouton/lnscan/lnurl"
	"github.com/urfave/cli/v2"
)

var encodeCommand = &cli.Command{
	Name:      "encode",
	Usage:     "Encode a URL as a bech32 LNURL",
	ArgsUsage: "url",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return fmt.Errorf("expected exactly one argument")
		}

		encoded, err := lnurl.EncodeURL(ctx.Args().First())
		if err != nil {
			return err
		}

		fmt.Println(encoded)

		return nil
	},
}

var decodeCommand = &cli.Command{
	Name:      "decode",
	Usage:     "Decode a bech32 LNURL",
	ArgsUsage: "lnurl",
	Action: func(ctx *cli.Context) error {
		if ctx.NArg() != 1 {
			return fmt.Errorf("expected exactly one argument")
		}

		decoded, err := lnurl.DecodeURL(ctx.Args().First())
		if err != nil {
			return err
		}

		fmt.Println(decoded)

		return nil
	},
}
