/*
Copyright © 2025 bachngocs
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bachngocs/support-chatbot-be/database"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "support-chatbot-be",
	Short: "Customer support chatbot backend",
	Long: `Backend for a customer support chatbot: proxies chat messages to a
generative language API with automatic model-tier fallback and serves a
file-backed knowledge base used to ground the AI's answers.

Running the bare command initializes (or repairs) the knowledge base file;
use the start subcommand to run the HTTP server.`,
	Run: func(cmd *cobra.Command, args []string) {
		file, _ := cmd.Flags().GetString("file")

		logger, err := zap.NewProduction()
		if err != nil {
			fmt.Println("Failed to create logger: ", err)
			os.Exit(1)
		}
		defer logger.Sync()

		store := database.NewFileStore(file, logger.Named("store"))
		doc, err := store.Load(context.Background())
		if err != nil {
			fmt.Println("Failed to initialize knowledge base: ", err)
			os.Exit(1)
		}
		fmt.Printf("Knowledge base ready at %s (%d entries, version %s)\n",
			file, len(doc.Entries), doc.Version)
		if doc.Recovered {
			fmt.Println("Note: the previous file was corrupt and has been quarantined next to it")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.support-chatbot-be.yaml)")

	rootCmd.Flags().StringP("file", "f", "data/knowledge.json", "Path to the knowledge base file")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".support-chatbot-be" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".support-chatbot-be")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
