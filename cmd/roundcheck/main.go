package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	cobra.CheckErr(newCmd(os.Stdin).Execute())
}
