package main

import (
	"ocm.software/open-component-model/fontcache/internal/cmd"
)

func main() {
	cmd.Execute()
}
