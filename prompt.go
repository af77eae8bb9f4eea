package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"

	"frameblend/internal/validation"
)

// maxFactor bounds the interactive factor prompt. Flags and environment
// are not limited.
const maxFactor = 30

func isPromptAbort(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF)
}

func promptInputPath() (string, error) {
	prompt := promptui.Prompt{
		Label: "📁 Video file path",
		Validate: func(s string) error {
			_, err := validation.ValidateInputPath(s)
			return err
		},
	}
	raw, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return validation.ValidateInputPath(raw)
}

func validateFactor(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("enter a whole number")
	}
	if n < 1 || n > maxFactor {
		return fmt.Errorf("factor must be between 1 and %d", maxFactor)
	}
	return nil
}

func promptFactor(def int) (int, error) {
	prompt := promptui.Prompt{
		Label:    fmt.Sprintf("🎞️  Blended frames between each pair (1-%d)", maxFactor),
		Default:  strconv.Itoa(def),
		Validate: validateFactor,
	}
	raw, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(raw))
}

func promptAudio(def bool) (bool, error) {
	defAnswer := "n"
	if def {
		defAnswer = "y"
	}
	prompt := promptui.Prompt{
		Label:     "🔊 Keep the original audio",
		IsConfirm: true,
		Default:   defAnswer,
	}
	_, err := prompt.Run()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	default:
		return false, err
	}
}

func promptOutputPath(inputPath, defaultOutput string, factor int) (string, error) {
	prompt := promptui.Prompt{
		Label:     "💾 Output path",
		Default:   defaultOutput,
		AllowEdit: true,
		Validate: func(s string) error {
			_, err := validation.ValidateOutputPath(s, inputPath, factor)
			return err
		},
	}
	return prompt.Run()
}
