package main

import "github.com/oshokin/proximity-alert/cmd/proximity-alert/cmd"

func main() {
	cmd.Execute()
}
