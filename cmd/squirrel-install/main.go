// squirrel-install downloads, verifies, and installs the Squirrel auditing
// engine for the current platform, then points the `squirrel` command at it.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/squirrelhq/squirrel-go/internal/install"
	"github.com/squirrelhq/squirrel-go/internal/pathcheck"
	"github.com/squirrelhq/squirrel-go/internal/release"
	"github.com/squirrelhq/squirrel-go/internal/settings"
)

// Version will be set at build time via -ldflags
var Version = "v0.0.1"

const (
	envVersion = "SQUIRREL_VERSION"
	envChannel = "SQUIRREL_CHANNEL"
)

var (
	flagVersion   string
	flagChannel   string
	flagBinDir    string
	flagForce     bool
	flagSkipSkill bool
)

var rootCmd = &cobra.Command{
	Use:   "squirrel-install",
	Short: "Install the Squirrel website-auditing engine",
	Long: `squirrel-install downloads the Squirrel engine release for this machine,
verifies its checksum, and installs it under ~/.squirrel with the current
version published to your bin directory.

Version selection, most specific wins:
  --version flag, SQUIRREL_VERSION, --channel flag, SQUIRREL_CHANNEL, stable.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInstall(cmd)
	},
}

func init() {
	rootCmd.Flags().StringVar(&flagVersion, "version", "", "install an exact release tag instead of resolving a channel")
	rootCmd.Flags().StringVar(&flagChannel, "channel", "", "release channel to follow: stable or beta")
	rootCmd.Flags().StringVar(&flagBinDir, "bin-dir", "", "directory to publish the squirrel command into")
	rootCmd.Flags().BoolVar(&flagForce, "force", false, "reinstall even if the resolved version is already current")
	rootCmd.Flags().BoolVar(&flagSkipSkill, "skip-skill", false, "skip installing the companion website-audit skill")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the installer version and the currently installed engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "squirrel-install %s\n", Version)

		paths, err := install.ResolvePaths("")
		if err != nil {
			return err
		}
		rec, err := settings.Load(paths.SettingsPath)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), "engine: not installed")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "engine: %s (channel %s, last checked %s)\n",
			rec.CurrentVersion, rec.Channel, rec.LastUpdateCheck)
		return nil
	},
}

func runInstall(cmd *cobra.Command) error {
	pin := flagVersion
	if pin == "" {
		pin = os.Getenv(envVersion)
	}

	rawChannel := flagChannel
	if rawChannel == "" {
		rawChannel = os.Getenv(envChannel)
	}
	channel, err := release.ParseChannel(rawChannel)
	if err != nil {
		return err
	}

	paths, err := install.ResolvePaths(flagBinDir)
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	bold.Fprintf(cmd.OutOrStdout(), "Installing Squirrel (installer %s)...\n", Version)
	if pin != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "  version: %s (pinned)\n", pin)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "  channel: %s\n", channel)
	}

	m := install.NewManager(install.Config{Paths: paths})
	outcome, err := m.Run(cmd.Context(), install.Request{
		Pin:            pin,
		Channel:        channel,
		BinDirOverride: flagBinDir,
		Force:          flagForce,
		SkipSkill:      flagSkipSkill,
	})
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	if outcome.AlreadyInstalled {
		green.Fprintf(cmd.OutOrStdout(), "✓ Squirrel %s is already installed\n", outcome.Version)
		fmt.Fprintln(cmd.OutOrStdout(), "  use --force to reinstall")
		return nil
	}
	green.Fprintf(cmd.OutOrStdout(), "✓ Installed Squirrel %s (%s)\n", outcome.Version, outcome.Platform)
	if outcome.Delegated {
		fmt.Fprintln(cmd.OutOrStdout(), "  placement was completed by the engine's own installer")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s -> %s\n", outcome.PointerPath, outcome.InstalledPath)
	}

	if outcome.SkillErr != nil {
		yellow := color.New(color.FgYellow)
		yellow.Fprintf(cmd.ErrOrStderr(), "warning: companion skill install failed: %v\n", outcome.SkillErr)
		yellow.Fprintln(cmd.ErrOrStderr(), "         run `squirrel skill install website-audit` to retry")
	}

	if !outcome.Delegated {
		if res := pathcheck.Check(paths.BinDir); !res.OnPath {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprint(cmd.OutOrStdout(), res.Advice)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
