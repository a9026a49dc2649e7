package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/heainstall/cmd/heainstall"
	"github.com/arthur-debert/heainstall/pkg/style"
)

func main() {
	rootCmd := heainstall.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, style.Error(fmt.Sprintf("Error: %v", err), style.IsTerminal(os.Stderr)))
		os.Exit(1)
	}
}
