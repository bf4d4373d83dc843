package main

import "github.com/oshokin/calibration-helper/cmd/calibration-server/cmd"

func main() {
	cmd.Execute()
}
