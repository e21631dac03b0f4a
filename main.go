package main

import "github.com/theirongolddev/cardwise/cmd"

func main() {
	cmd.Execute()
}
