// Package prompt wraps the interactive terminal prompts the starbind CLI
// needs: a yes/no confirmation before unmounting, and a list selection
// when a file has replicas at more than one storage path.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// IsAborted reports whether the error means the user backed out rather
// than something going wrong.
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

// wrapError normalizes promptui's interrupt/abort errors to ErrAborted so
// callers only have one sentinel to check.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// Confirm asks a yes/no question. Returns false with a nil error on an
// explicit "n", and ErrAborted on Ctrl+C.
func Confirm(label string, defaultYes bool) (bool, error) {
	defaultStr := "y/N"
	if defaultYes {
		defaultStr = "Y/n"
	}

	p := promptui.Prompt{
		Label:     fmt.Sprintf("%s [%s]", label, defaultStr),
		IsConfirm: true,
	}

	result, err := p.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			return false, ErrAborted
		}
		// promptui reports a "n" answer as ErrAbort
		if err == promptui.ErrAbort {
			return false, nil
		}
		// Bare Enter takes the default
		if result == "" {
			return defaultYes, nil
		}
		return false, err
	}

	answer := strings.ToLower(result)
	return answer == "y" || answer == "yes", nil
}

// ConfirmWithForce is Confirm behind a --force escape hatch: a true force
// skips the prompt entirely, for scripted use where no terminal exists.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}
	return Confirm(label, false)
}

// SelectString lets the user pick one entry from items, typically the
// candidate storage paths of an ambiguous replica set.
func SelectString(label string, items []string) (string, error) {
	p := promptui.Select{
		Label: label,
		Items: items,
		Size:  10,
	}

	_, result, err := p.Run()
	return result, wrapError(err)
}
