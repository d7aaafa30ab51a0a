package main

import "github.com/brogergvhs/novelscraper/cmd"

func main() {
	cmd.Execute()
}
