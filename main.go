package main

import "github.com/malt3/swap-tool/cmd"

func main() {
	cmd.Execute()
}
