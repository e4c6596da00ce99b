package main

import (
	"github.com/BioHazard786/pairline/internal/cli"
	"github.com/BioHazard786/pairline/internal/logging"
)

func main() {
	logging.Init()
	cli.Execute()
}
