package main

import (
	"github.com/caesium-cloud/cimon/cmd"
	"github.com/caesium-cloud/cimon/pkg/env"
	"github.com/caesium-cloud/cimon/pkg/log"
)

func main() {
	if err := env.Process(); err != nil {
		log.Fatal("environment failure", "error", err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal("cimon failure", "error", err)
	}
}
