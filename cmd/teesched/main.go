package main

import (
	// Embedded zone database so release-time math works on hosts without
	// a system tzdata.
	_ "time/tzdata"

	"github.com/example/tee-scheduler/cmd"
)

func main() {
	cmd.Execute()
}
