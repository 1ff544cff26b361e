package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"siteops/cmd"
)

func main() {
	err := cmd.Execute()
	if err != nil {

		log.WithError(err).Fatal("error in the cli. exiting")
		os.Exit(1)
	}
}
