package main

import (
	"github.com/tvansteenburgh/charm-tools/pkg/cmd"
)

func main() {
	cmd.Execute()
}
