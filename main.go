package main

import (
	cmd "github.com/shelfsight/shelfsight/cmd/shelfsight"
	"github.com/shelfsight/shelfsight/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting shelfsight")
	cmd.Execute()
}
