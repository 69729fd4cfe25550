// Command tarokctl scores a file of round lines offline and writes the
// report.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tarokctl",
		Usage: "offline tarok and table scoring",
		Commands: []*cli.Command{
			newScoreCommand(),
		},
	}
}
