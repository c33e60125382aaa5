package main

import "github.com/oshokin/proximity-alert/cmd/proximity-monitor/cmd"

func main() {
	cmd.Execute()
}
