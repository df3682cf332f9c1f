package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "mwdemo",
	Short: "Multi-wait kernel core demo",
	Long:  `Drive a waiter thread multiplexing a message queue, an event channel and a condition word through the kernel's multi-wait core`,
}

func main() {
	log.SetFlags(log.Lshortfile | log.LstdFlags)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
