package main

import (
	"os"

	"github.com/AmineMekki01/healthcare-management-platform-sub002/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
