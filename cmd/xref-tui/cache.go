package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xref-tui/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached navigation trees",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List servers with a cached tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cache.NewCache("")
		if err != nil {
			return err
		}
		hosts, err := c.ListCached()
		if err != nil {
			return err
		}
		for _, h := range hosts {
			fmt.Fprintln(cmd.OutOrStdout(), h)
		}
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [host]",
	Short: "Remove the cached tree for host (as printed by cache list), or every cached tree",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cache.NewCache("")
		if err != nil {
			return err
		}
		if len(args) == 1 {
			return c.RemoveTree(args[0])
		}
		return c.ClearCache()
	},
}

func init() {
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
