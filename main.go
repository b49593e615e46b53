package main

import (
	"os"

	"github.com/ziadkadry99/repowiki/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
