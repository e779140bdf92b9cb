package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/speechpipe/speechpipe/internal/backend"
	"github.com/speechpipe/speechpipe/internal/config"
	"github.com/speechpipe/speechpipe/internal/credential"
	"github.com/speechpipe/speechpipe/internal/language"
)

// ConfigureResult carries the wizard outcome back to the CLI.
type ConfigureResult struct {
	Config    config.Config
	Cancelled bool
}

// Run walks the user through recognition settings, starting from the
// current config. Esc or Ctrl+C at any screen cancels without saving.
func Run(cfg config.Config) ConfigureResult {
	clearScreen()
	fmt.Println(Logo())
	fmt.Println(StyleMuted.Render("  Push-to-talk speech recognition for Wayland"))
	fmt.Println()

	steps := []func(*config.Config) error{
		stepBackend,
		stepTier,
		stepCredential,
		stepLanguage,
		stepNotifications,
	}
	for _, step := range steps {
		if err := step(&cfg); err != nil {
			return ConfigureResult{Cancelled: true}
		}
	}

	printSummary(cfg)
	confirmed := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Save this configuration?").
			Value(&confirmed),
	)).WithTheme(getTheme())
	if err := form.Run(); err != nil || !confirmed {
		return ConfigureResult{Cancelled: true}
	}
	return ConfigureResult{Config: cfg}
}

func stepBackend(cfg *config.Config) error {
	ids := backend.IDs()
	opts := make([]huh.Option[string], 0, len(ids))
	for _, id := range ids {
		opts = append(opts, huh.NewOption(backendDisplayName(id), id))
	}

	selected := cfg.Recognition.Backend
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Recognition backend").
			Description("Offline runs locally; cloud backends need network access.").
			Options(opts...).
			Value(&selected),
	)).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Recognition.Backend = selected

	if selected == "offline" {
		return stepModelSize(cfg)
	}
	if selected == "azure" {
		return stepAzureRegion(cfg)
	}
	return nil
}

func stepModelSize(cfg *config.Config) error {
	selected := cfg.Offline.ModelSize
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Whisper model size").
			Description("Larger models are more accurate but slower.").
			Options(
				huh.NewOption("Tiny (fastest)", "tiny"),
				huh.NewOption("Base (balanced)", "base"),
				huh.NewOption("Small", "small"),
				huh.NewOption("Medium", "medium"),
				huh.NewOption("Large (most accurate)", "large-v3"),
			).
			Value(&selected),
	)).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Offline.ModelSize = selected
	return nil
}

func stepAzureRegion(cfg *config.Config) error {
	region := cfg.Azure.Region
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Azure region").
			Description("Region of your Speech resource (e.g. westeurope).").
			Placeholder("westeurope").
			Value(&region),
	)).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	if region != "" {
		cfg.Azure.Region = region
	}
	return nil
}

func stepTier(cfg *config.Config) error {
	if cfg.Recognition.Backend == "offline" {
		cfg.Recognition.Tier = string(credential.TierPersonal)
		return nil
	}

	opts := []huh.Option[string]{
		huh.NewOption("Personal key (your own, uncapped)", string(credential.TierPersonal)),
		huh.NewOption("Shared key (pooled, capped audio length)", string(credential.TierShared)),
	}
	if cfg.Recognition.Backend != "openai" {
		opts = append(opts, huh.NewOption("Public free (no key, short clips only)", string(credential.TierPublicFree)))
	}

	selected := cfg.Recognition.Tier
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Credential tier").
			Options(opts...).
			Value(&selected),
	)).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Recognition.Tier = selected
	return nil
}

func stepCredential(cfg *config.Config) error {
	id := cfg.Recognition.Backend
	if id == "offline" || cfg.Recognition.Tier != string(credential.TierPersonal) {
		return nil
	}

	current := cfg.Backends[id].APIKey
	title := fmt.Sprintf("%s API key", backendDisplayName(id))
	desc := "Stored in your config file."
	if current != "" {
		desc = fmt.Sprintf("Current: %s. Leave empty to keep it.", maskAPIKey(current))
	}

	key := ""
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(title).
			Description(desc).
			EchoMode(huh.EchoModePassword).
			Value(&key),
	)).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	if key != "" {
		if cfg.Backends == nil {
			cfg.Backends = map[string]config.BackendConfig{}
		}
		cfg.Backends[id] = config.BackendConfig{APIKey: key}
	}
	return nil
}

func stepLanguage(cfg *config.Config) error {
	langs := language.List()
	opts := make([]huh.Option[string], 0, len(langs))
	for _, l := range langs {
		label := l.Name
		if l.NativeName != "" && l.NativeName != l.Name {
			label = fmt.Sprintf("%s (%s)", l.Name, l.NativeName)
		}
		opts = append(opts, huh.NewOption(label, l.Tag))
	}

	selected := cfg.Recognition.Language
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Recognition language").
			Options(opts...).
			Value(&selected),
	)).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	cfg.Recognition.Language = selected
	return nil
}

func stepNotifications(cfg *config.Config) error {
	selected := "off"
	if cfg.Notifications.Enabled {
		selected = cfg.Notifications.Type
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Notifications").
			Options(
				huh.NewOption("Desktop (notify-send)", "desktop"),
				huh.NewOption("Log only", "log"),
				huh.NewOption("Off", "off"),
			).
			Value(&selected),
	)).WithTheme(getTheme())
	if err := form.Run(); err != nil {
		return err
	}
	if selected == "off" {
		cfg.Notifications.Enabled = false
	} else {
		cfg.Notifications.Enabled = true
		cfg.Notifications.Type = selected
	}
	return nil
}

func printSummary(cfg config.Config) {
	id := cfg.Recognition.Backend
	lines := []string{
		summaryLine("Backend", backendDisplayName(id)),
		summaryLine("Language", displayLanguage(cfg.Recognition.Language)),
	}
	if id != "offline" {
		lines = append(lines, summaryLine("Tier", cfg.Recognition.Tier))
		if key := cfg.Backends[id].APIKey; key != "" && cfg.Recognition.Tier == string(credential.TierPersonal) {
			lines = append(lines, summaryLine("API key", maskAPIKey(key)))
		}
	} else {
		lines = append(lines, summaryLine("Model", cfg.Offline.ModelSize))
	}
	if id == "azure" {
		lines = append(lines, summaryLine("Region", cfg.Azure.Region))
	}
	notif := "off"
	if cfg.Notifications.Enabled {
		notif = cfg.Notifications.Type
	}
	lines = append(lines, summaryLine("Notifications", notif))

	fmt.Println()
	fmt.Println(StyleSubHeader.Render("  Summary"))
	fmt.Println(strings.Join(lines, "\n"))
	fmt.Println()
}

func summaryLine(label, value string) string {
	return fmt.Sprintf("  %s %s",
		StyleMuted.Render(fmt.Sprintf("%-14s", label+":")),
		StyleValue.Render(value))
}

func displayLanguage(tag string) string {
	if tag == "" {
		return "Auto-detect"
	}
	for _, l := range language.List() {
		if l.Tag == tag {
			return l.Name
		}
	}
	return tag
}

func clearScreen() {
	termenv.NewOutput(os.Stdout).ClearScreen()
}

func getTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Focused.Base = lipgloss.NewStyle().BorderForeground(ColorPrimary)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(ColorSecondary)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(ColorText)
	t.Focused.FocusedButton = lipgloss.NewStyle().
		Background(ColorPrimary).
		Foreground(lipgloss.Color("#FFFFFF")).
		Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Padding(0, 1)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorMuted)
	t.Blurred.Description = lipgloss.NewStyle().Foreground(ColorSubtle)

	return t
}
