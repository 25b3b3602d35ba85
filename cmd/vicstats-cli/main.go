package main

import "vicstats-backend/cmd/vicstats-cli/cmd"

func main() {
	cmd.Execute()
}
