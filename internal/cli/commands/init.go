package commands

import (
	"fmt"
	"go/token"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/structarray/structarray/internal/cli/config"
	"github.com/structarray/structarray/internal/cli/ui"
)

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a structarray.yaml configuration file",
		Long: `Create structarray.yaml in the current directory. Without --yes the
settings are asked for interactively.`,
		Example: `  structarray init
  structarray init --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(config.FileName); err == nil {
				return fmt.Errorf("%s already exists", config.FileName)
			}

			cfg := config.Default()
			if !yes {
				if err := askConfig(cfg); err != nil {
					return err
				}
			}

			if err := config.Write(config.FileName, cfg); err != nil {
				return err
			}

			ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Created %s", config.FileName), color.NoColor)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Write the defaults without prompting")
	return cmd
}

// askConfig prompts for each setting, starting from the values in cfg
func askConfig(cfg *config.Config) error {
	outputPrompt := &survey.Input{
		Message: "Generated file name (empty for <package>_structarray.go):",
		Default: cfg.Output,
	}
	if err := survey.AskOne(outputPrompt, &cfg.Output, survey.WithValidator(validOutput)); err != nil {
		return err
	}

	asPrompt := &survey.Input{
		Message: "Name of the pointer-returning method:",
		Default: cfg.AsArrayMethod,
	}
	if err := survey.AskOne(asPrompt, &cfg.AsArrayMethod, survey.WithValidator(survey.ComposeValidators(survey.Required, validIdentifier))); err != nil {
		return err
	}

	toPrompt := &survey.Confirm{
		Message: "Also generate the by-value method?",
		Default: cfg.ToArray,
	}
	if err := survey.AskOne(toPrompt, &cfg.ToArray); err != nil {
		return err
	}

	if cfg.ToArray {
		namePrompt := &survey.Input{
			Message: "Name of the by-value method:",
			Default: cfg.ToArrayMethod,
		}
		if err := survey.AskOne(namePrompt, &cfg.ToArrayMethod, survey.WithValidator(survey.ComposeValidators(survey.Required, validIdentifier))); err != nil {
			return err
		}
	}

	tagsPrompt := &survey.Input{
		Message: "Build constraint for generated files (optional):",
		Default: cfg.BuildTags,
	}
	if err := survey.AskOne(tagsPrompt, &cfg.BuildTags); err != nil {
		return err
	}

	return cfg.Validate()
}

func validIdentifier(ans interface{}) error {
	s, _ := ans.(string)
	if !token.IsIdentifier(s) {
		return fmt.Errorf("%q is not a valid Go identifier", s)
	}
	return nil
}

func validOutput(ans interface{}) error {
	s, _ := ans.(string)
	if s == "" {
		return nil
	}
	if !strings.HasSuffix(s, ".go") || strings.HasSuffix(s, "_test.go") {
		return fmt.Errorf("file name must end in .go and must not be a test file")
	}
	return nil
}
