package main

import (
	"github.com/bcgov/mmti-sync/cmd"
)

func main() {
	cmd.Execute()
}
