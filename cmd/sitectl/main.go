package main

import (
	"context"
	"log"
)

func main() {
	if err := execute(context.Background()); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
