package main

import (
	"log"

	"github.com/respondhq/respond/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
