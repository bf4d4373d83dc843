package main

import "github.com/oshokin/calibration-helper/cmd/calibration-probe/cmd"

func main() {
	cmd.Execute()
}
