package main

import (
	cmd "github.com/careline/careline/cmd/careline"
	"github.com/careline/careline/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting careline")
	cmd.Execute()
}
