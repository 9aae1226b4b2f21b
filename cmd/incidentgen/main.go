package main

import (
	"fmt"
	"os"

	"github.com/Christianib003/kigali-ems-pipeline-optimization/internal/cli"
	"github.com/Christianib003/kigali-ems-pipeline-optimization/pkg/config"
)

func main() {
	if err := cli.NewRootCmd(config.Load()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
