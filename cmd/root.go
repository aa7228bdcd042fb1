package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/bcgov/mmti-sync/internal/utils"
	"github.com/bcgov/mmti-sync/pkg/sources/mem"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mmti-sync",
	Short: "Keeps MMTI project records in step with the MEM records API.",
	Long: `mmti-sync refreshes the authorizations, inspections and other documents
of MMTI projects from the Ministry of Energy and Mines records API, and
imports one-off EAO collection exports and project updates.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.mmti-sync.yaml)")

	// Global flags
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().String("store", "", "Store URI: mongodb://..., mongodb+srv://... or sqlite://<path> (default "+defaultStoreHint+")")
	viper.BindPFlag("store.uri", rootCmd.PersistentFlags().Lookup("store"))
}

const defaultStoreHint = "mongodb://localhost:27017/mmti-dev"

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".mmti-sync")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MMTI")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}
	}

	viper.SetDefault("source.baseurl", mem.DefaultBaseURL)
	viper.SetDefault("source.sessionid", "")
	viper.SetDefault("source.timeout", 30*time.Second)
	viper.SetDefault("source.retries", 0)
	viper.SetDefault("source.useragent", mem.DefaultUserAgent)
	viper.SetDefault("store.uri", "")
	viper.SetDefault("codemap.file", "")
	viper.SetDefault("metrics.textfile", "")

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	utils.SetLogLevel(levelString)
}
