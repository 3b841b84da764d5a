package main

import (
	"github.com/oshokin/mcsync/cmd/mcsync/cmd"
)

func main() {
	cmd.Execute()
}
