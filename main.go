package main

import (
	"log"

	"github.com/gitlanes/gitlanes/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitlanes: %v", err)
	}
}
