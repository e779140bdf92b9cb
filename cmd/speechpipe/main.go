package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/speechpipe/speechpipe/internal/bus"
	"github.com/speechpipe/speechpipe/internal/config"
	"github.com/speechpipe/speechpipe/internal/daemon"
	"github.com/speechpipe/speechpipe/internal/deps"
	"github.com/speechpipe/speechpipe/internal/models/whisper"
	"github.com/speechpipe/speechpipe/internal/tui"
)

// set by the release build via -ldflags
var version = "dev"

func main() {
	_ = rootCmd.Execute()
}

var rootCmd = &cobra.Command{
	Use:   "speechpipe",
	Short: "Push-to-talk speech recognition for Wayland",
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		startCmd(),
		stopCmd(),
		statusCmd(),
		languageCmd(),
		backendCmd(),
		tierCmd(),
		versionCmd(),
		quitCmd(),
		configureCmd(),
		modelCmd(),
		doctorCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := daemon.New(version)
			if err != nil {
				return fmt.Errorf("failed to create daemon: %w", err)
			}
			return d.Run()
		},
	}
}

// sendCmd builds the common shape of the client commands: send one verb
// over the control socket and print the daemon's response.
func sendCmd(use, short, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.SendCommand(verb, args...)
			if err != nil {
				return fmt.Errorf("failed to reach daemon: %w", err)
			}
			fmt.Println(resp)
			return nil
		},
	}
}

func startCmd() *cobra.Command {
	return sendCmd("start", "Start a recognition session", bus.CmdStart)
}

func stopCmd() *cobra.Command {
	return sendCmd("stop", "Stop the current recognition session", bus.CmdStop)
}

func statusCmd() *cobra.Command {
	return sendCmd("status", "Show daemon state and active selection", bus.CmdStatus)
}

func versionCmd() *cobra.Command {
	return sendCmd("version", "Show daemon protocol and build version", bus.CmdVersion)
}

func quitCmd() *cobra.Command {
	return sendCmd("quit", "Shut down the daemon", bus.CmdQuit)
}

func languageCmd() *cobra.Command {
	cmd := sendCmd("language <tag>", "Set the recognition language (e.g. en-US, or auto)", bus.CmdLanguage)
	cmd.Args = cobra.ExactArgs(1)
	return cmd
}

func backendCmd() *cobra.Command {
	cmd := sendCmd("backend <id>", "Switch the recognition backend", bus.CmdBackend)
	cmd.Args = cobra.ExactArgs(1)
	return cmd
}

func tierCmd() *cobra.Command {
	cmd := sendCmd("tier <tier>", "Switch the credential tier (personal, shared, public)", bus.CmdTier)
	cmd.Args = cobra.ExactArgs(1)
	return cmd
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for speechpipe.
This will guide you through setting up:
- The recognition backend (offline whisper.cpp or a cloud vendor)
- Credential tier and API keys
- Recognition language and notifications`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if errors.Is(err, config.ErrConfigNotFound) {
		cfg = config.DefaultConfig()
	} else if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result := tui.Run(*cfg)
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := config.Save(&result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved.")
	showNextSteps(&result.Config)
	return nil
}

func showNextSteps(cfg *config.Config) {
	fmt.Println()
	fmt.Println("Next steps:")
	step := 1
	if cfg.Recognition.Backend == "offline" {
		if !whisper.IsInstalled(modelDir(cfg), cfg.Offline.ModelSize) {
			fmt.Printf("%d. Download the model: speechpipe model download %s\n", step, cfg.Offline.ModelSize)
			step++
		}
	}
	fmt.Printf("%d. Run the daemon: speechpipe serve\n", step)
	step++
	fmt.Printf("%d. Start dictating: speechpipe start\n", step)
	fmt.Println()

	if path, err := config.GetConfigPath(); err == nil {
		fmt.Printf("Config file location: %s\n", path)
	}
}

func modelDir(cfg *config.Config) string {
	if cfg.Offline.ModelDir != "" {
		return cfg.Offline.ModelDir
	}
	return whisper.DefaultDir()
}

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that external tools are installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			checks := []struct {
				name  string
				check func() deps.Status
			}{
				{"pw-record (audio capture)", deps.CheckPwRecord},
				{"pw-cli (device listing)", deps.CheckPwCli},
				{"whisper-cli (offline recognition)", deps.CheckWhisperCli},
				{"notify-send (desktop notifications)", deps.CheckNotifySend},
			}
			for _, c := range checks {
				st := c.check()
				if st.Installed {
					line := fmt.Sprintf("[x] %s: %s", c.name, st.Path)
					if st.Version != "" {
						line += fmt.Sprintf(" (%s)", st.Version)
					}
					fmt.Println(line)
				} else {
					fmt.Printf("[ ] %s: not found\n", c.name)
				}
			}
			return nil
		},
	}
}

func modelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Manage offline whisper models",
	}
	cmd.AddCommand(modelListCmd())
	cmd.AddCommand(modelDownloadCmd())
	cmd.AddCommand(modelRemoveCmd())
	return cmd
}

func configuredModelDir() string {
	cfg, err := config.Load()
	if err != nil || cfg.Offline.ModelDir == "" {
		return whisper.DefaultDir()
	}
	return cfg.Offline.ModelDir
}

func modelListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available whisper models",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := configuredModelDir()
			for _, m := range whisper.List() {
				mark := "[ ]"
				if whisper.IsInstalled(dir, m.ID) {
					mark = "[x]"
				}
				lang := "english-only"
				if m.Multilingual {
					lang = "multilingual"
				}
				fmt.Printf("  %s %-10s %s [%s, %s]\n", mark, m.ID, m.Name, lang, m.Size)
			}
			fmt.Printf("\nModel directory: %s\n", dir)
			return nil
		},
	}
}

func modelDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <model>",
		Short: "Download a whisper model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			modelID := args[0]
			info := whisper.Get(modelID)
			if info == nil {
				return fmt.Errorf("unknown model: %s", modelID)
			}

			dir := configuredModelDir()
			if whisper.IsInstalled(dir, modelID) {
				fmt.Printf("model %q is already installed at %s\n", modelID, whisper.Path(dir, modelID))
				return nil
			}

			fmt.Printf("downloading %s (%s)...\n", modelID, info.Size)
			var lastPercent int
			err := whisper.Download(cmd.Context(), dir, modelID, func(downloaded, total int64) {
				if total <= 0 {
					return
				}
				percent := int(downloaded * 100 / total)
				if percent >= lastPercent+10 {
					fmt.Printf("%d%% ", percent)
					lastPercent = percent
				}
			})
			if err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			fmt.Printf("\ndownload complete: %s\n", whisper.Path(dir, modelID))
			return nil
		},
	}
}

func modelRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <model>",
		Short: "Remove a downloaded whisper model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := whisper.Remove(configuredModelDir(), args[0]); err != nil {
				return err
			}
			fmt.Printf("model %q removed\n", args[0])
			return nil
		},
	}
}
