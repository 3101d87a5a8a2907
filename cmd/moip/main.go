package main

import (
	"os"

	"k8s.io/component-base/cli"

	"github.com/nrp-moip/moip/cmd/moip/app"
)

func main() {
	command := app.NewMoipCommand()
	code := cli.Run(command)
	os.Exit(code)
}
