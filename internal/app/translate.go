package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"lexibridge/internal/aggregate"
	"lexibridge/internal/cli"
	"lexibridge/internal/history"
	"lexibridge/internal/language"
	"lexibridge/internal/translation"
)

func runTranslate(args []string) int {
	fs := flag.NewFlagSet("translate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	timeout := fs.Duration("timeout", time.Minute, "Command timeout")
	lang := fs.String("lang", "", "Target language (ISO 639-1, for example: zh, en)")
	source := fs.String("source", "auto", "Source language, or auto to detect")
	provider := fs.String("provider", "", "Restrict to one provider")
	apiKey := fs.String("api-key", "", "Ad-hoc API key for --provider")
	secretID := fs.String("secret-id", "", "Ad-hoc secret ID for --provider")
	secretKey := fs.String("secret-key", "", "Ad-hoc secret key for --provider")
	noSave := fs.Bool("no-save", false, "Do not record the lookup in history")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "translate requires exactly one text argument")
		return 2
	}
	text := strings.TrimSpace(fs.Arg(0))
	if text == "" {
		fmt.Fprintln(os.Stderr, "translate argument must not be empty")
		return 2
	}

	rt, err := bootstrap(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	prefs, err := rt.settings.Preferences(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load settings: %v\n", err)
		return 1
	}

	targetLang := language.NormalizeCode(strings.TrimSpace(*lang))
	if targetLang == "" {
		targetLang = prefs.TargetLang
	}

	creds, err := rt.settings.Credentials(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load credentials: %v\n", err)
		return 1
	}

	var enabled []string
	providerName := strings.ToLower(strings.TrimSpace(*provider))
	if providerName != "" {
		if _, err := rt.registry.Provider(providerName); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		enabled = []string{providerName}
		if *apiKey != "" || *secretID != "" || *secretKey != "" {
			creds[providerName] = translation.Credential{
				APIKey:    strings.TrimSpace(*apiKey),
				SecretID:  strings.TrimSpace(*secretID),
				SecretKey: strings.TrimSpace(*secretKey),
			}
		}
	} else {
		enabled = prefs.EnabledProviders
	}

	result, err := rt.aggregator.Translate(ctx, aggregate.Input{
		Text:             text,
		SourceLang:       strings.TrimSpace(*source),
		TargetLang:       targetLang,
		Credentials:      creds,
		EnabledProviders: enabled,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Translation failed: %v\n", err)
		return 1
	}

	fmt.Printf("%s\n", result.Primary)
	for _, unit := range result.Translations {
		fmt.Printf("  [%s] %s\n", rt.registry.DisplayName(unit.Source), unit.Text)
	}
	if result.Dictionary != nil {
		for _, meaning := range result.Dictionary.Meanings {
			for _, def := range meaning.Definitions {
				fmt.Printf("  %s %s\n", meaning.PartOfSpeech, def.Definition)
			}
		}
	}
	for name, message := range result.Failures {
		fmt.Fprintf(os.Stderr, "Warning: %s: %s\n", rt.registry.DisplayName(name), message)
	}

	if !*noSave && history.ShouldPersist(result.Original, result.Primary, result.SourceLang) {
		if _, err := rt.historyDB.Add(ctx, history.AddParams{
			Original:     result.Original,
			Translation:  result.Primary,
			SourceLang:   result.SourceLang,
			TargetLang:   result.TargetLang,
			Translations: result.Translations,
			Dictionary:   result.Dictionary,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record history: %v\n", err)
		}
	}
	return 0
}
