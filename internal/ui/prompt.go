package ui

import (
	"github.com/AlecAivazis/survey/v2"
)

// Input prompts for a single line of text.
func Input(message, defaultValue, help string) (string, error) {
	var result string
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
		Help:    help,
	}
	err := survey.AskOne(prompt, &result)
	return result, err
}

// Password prompts for a secret without echoing it.
func Password(message, help string) (string, error) {
	var result string
	prompt := &survey.Password{
		Message: message,
		Help:    help,
	}
	err := survey.AskOne(prompt, &result)
	return result, err
}

// Select prompts for one choice from options.
func Select(message string, options []string, defaultValue string) (string, error) {
	var result string
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	err := survey.AskOne(prompt, &result)
	return result, err
}

// Confirm prompts for a yes/no answer.
func Confirm(message string, defaultValue bool) (bool, error) {
	var result bool
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	err := survey.AskOne(prompt, &result)
	return result, err
}
