// Package authctl is the administrative command line for the credential
// store: registering identities, checking passwords and running the reset
// flow without going through the HTTP API.
package authctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var (
	ErrUsage              = errors.New("usage: authctl [flags] register|verify|reset-token <email> | reset-password <token>")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// IdentityService is the subset of services.IdentityService the commands use.
type IdentityService interface {
	RegisterIdentity(ctx context.Context, email, password string) (*models.Identity, error)
	VerifyLogin(ctx context.Context, email, password string) bool
	IssueResetToken(ctx context.Context, email string) (string, error)
	RedeemResetToken(ctx context.Context, token, newPassword string) error
}

type App struct {
	svc IdentityService
	out io.Writer
	fd  int
}

// NewApp prompts on out and reads passwords from the terminal behind stdin.
func NewApp(svc IdentityService, out io.Writer) *App {
	return &App{svc: svc, out: out, fd: int(os.Stdin.Fd())}
}

// Run executes the command named by args[0] with args[1] as its operand.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) != 2 || args[1] == "" {
		return ErrUsage
	}
	cmd, operand := args[0], args[1]

	switch cmd {
	case "register":
		return a.register(ctx, operand)
	case "verify":
		return a.verify(ctx, operand)
	case "reset-token":
		return a.resetToken(ctx, operand)
	case "reset-password":
		return a.resetPassword(ctx, operand)
	default:
		return ErrUsage
	}
}

var errPasswordRejected = fmt.Errorf("%w: bcrypt accepts at most 72 bytes", common.ErrInvalidPassword)

func (a *App) register(ctx context.Context, email string) error {
	password, err := a.getPassword("Enter password: ")
	if err != nil {
		return err
	}

	identity, err := a.svc.RegisterIdentity(ctx, email, password)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("%s: email already registered", email)
		}
		if errors.Is(err, common.ErrInvalidPassword) {
			return errPasswordRejected
		}
		return err
	}

	fmt.Fprintf(a.out, "registered %s id=%s\n", identity.Email, identity.ID)
	return nil
}

func (a *App) verify(ctx context.Context, email string) error {
	password, err := a.getPassword("Enter password: ")
	if err != nil {
		return err
	}
	if !a.svc.VerifyLogin(ctx, email, password) {
		return ErrInvalidCredentials
	}
	fmt.Fprintln(a.out, "OK")
	return nil
}

func (a *App) resetToken(ctx context.Context, email string) error {
	token, err := a.svc.IssueResetToken(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%s: no such identity", email)
		}
		return err
	}
	fmt.Fprintln(a.out, token)
	return nil
}

func (a *App) resetPassword(ctx context.Context, token string) error {
	password, err := a.getPassword("Enter new password: ")
	if err != nil {
		return err
	}
	if err := a.svc.RedeemResetToken(ctx, token, password); err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return errors.New("invalid reset token")
		}
		if errors.Is(err, common.ErrInvalidPassword) {
			return errPasswordRejected
		}
		return err
	}
	fmt.Fprintln(a.out, "Password updated")
	return nil
}

// getPassword reads a password without echo. Empty passwords are refused.
func (a *App) getPassword(prompt string) (string, error) {
	if _, err := fmt.Fprint(a.out, prompt); err != nil {
		return "", err
	}
	pw, err := readPassword(a.fd)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)
	if len(pw) == 0 {
		return "", errors.New("empty password")
	}
	return string(pw), nil
}
