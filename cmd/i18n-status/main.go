// Package main prints the translation status of the embedded catalogs.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/computeralex/easier-softer-meeting-manager/internal/platform/i18n/catalog"
	"github.com/computeralex/easier-softer-meeting-manager/internal/tools/i18nstatus"
)

func main() {
	var baseLocale string
	var asJSON, check bool
	flag.StringVar(&baseLocale, "base-locale", catalog.BaseLocale, "locale used as the source of truth")
	flag.BoolVar(&asJSON, "json", false, "write JSON instead of markdown")
	flag.BoolVar(&check, "check", false, "exit non-zero when a locale is missing keys")
	flag.Parse()

	bundle, err := catalog.Default()
	if err != nil {
		log.Fatalf("load catalogs: %v", err)
	}
	rep, err := i18nstatus.Build(bundle, baseLocale)
	if err != nil {
		log.Fatalf("build report: %v", err)
	}
	write := i18nstatus.WriteMarkdown
	if asJSON {
		write = i18nstatus.WriteJSON
	}
	if err := write(os.Stdout, rep); err != nil {
		log.Fatalf("write report: %v", err)
	}
	if check && !rep.Complete() {
		os.Exit(1)
	}
}
