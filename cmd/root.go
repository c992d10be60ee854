// Package cmd wires the fruitbot CLI: a conversational shopping assistant
// for the Fruitify store, running entirely against an in-memory catalog.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fruitbot",
	Short: "FruitBot - conversational shopping assistant for Fruitify.com",
	Long: `FruitBot is a terminal shopping assistant for the Fruitify fruit store.

It understands natural language: browse the catalog, manage your cart,
place orders and review your order history, all in one conversation.

Running fruitbot without a subcommand starts an interactive chat.`,
	RunE: runChat,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
