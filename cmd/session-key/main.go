// Package main prints a random session secret for the web command.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/computeralex/easier-softer-meeting-manager/internal/cmd/sessionkey"
)

func main() {
	cfg, err := sessionkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	if err := sessionkey.Run(cfg, os.Stdout, nil); err != nil {
		log.Fatalf("generate key: %v", err)
	}
}
