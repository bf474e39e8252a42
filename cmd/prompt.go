package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"crosspost/core/post"
	"crosspost/core/reconcile"

	"golang.org/x/term"
)

// promptSecret reads a secret from the terminal without echo. Used when
// an enabled platform has no credential in the environment or .env.
func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", label, err)
	}
	secret := strings.TrimSpace(string(raw))
	if secret == "" {
		return "", fmt.Errorf("%s is required", label)
	}
	return secret, nil
}

// stdinPrompter answers the engine's escalation questions on the
// terminal. It blocks until the operator responds.
type stdinPrompter struct {
	in *bufio.Reader
}

func newStdinPrompter() *stdinPrompter {
	return &stdinPrompter{in: bufio.NewReader(os.Stdin)}
}

func (p *stdinPrompter) Choose(platform string, key post.Key, postID string) (reconcile.Decision, error) {
	fmt.Printf("\n%s cannot update posts. Post %s is already published there (id %s).\n", platform, key, postID)
	fmt.Println("  [m] I will apply the edit manually, keep the identifier")
	fmt.Println("  [r] I will delete the remote post, recreate it (destroys remote statistics)")
	fmt.Println("  [a] abort the run")
	for {
		fmt.Print("choice [m/r/a]: ")
		line, err := p.in.ReadString('\n')
		if err != nil {
			return reconcile.DecisionAbort, err
		}
		switch strings.TrimSpace(strings.ToLower(line)) {
		case "m":
			return reconcile.DecisionManual, nil
		case "r":
			return reconcile.DecisionRecreate, nil
		case "a":
			return reconcile.DecisionAbort, nil
		}
	}
}

func (p *stdinPrompter) ConfirmDeleted(platform string, postID string) (bool, error) {
	fmt.Printf("\nDelete post %s on %s now, then type 'yes' to recreate it: ", postID, platform)
	line, err := p.in.ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(line) == "yes", nil
}

// manualPrompter answers every escalation with proceed-manually,
// letting non-interactive runs complete without a terminal.
type manualPrompter struct{}

func (manualPrompter) Choose(string, post.Key, string) (reconcile.Decision, error) {
	return reconcile.DecisionManual, nil
}

func (manualPrompter) ConfirmDeleted(string, string) (bool, error) {
	return false, nil
}
