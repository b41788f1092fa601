package mount

import (
	"fmt"
	"os"
	"os/user"
	"strconv"

	"github.com/starbind/starbind/pkg/mount/errors"
)

// Invocation identifies the user a privileged operation acts on behalf of.
// It is built once from the sudo environment at the program boundary and
// passed down explicitly; nothing below the boundary reads environment
// variables.
type Invocation struct {
	// Username is the invoking user's login name, from SUDO_USER.
	Username string

	// UID and GID are the invoking user's numeric IDs, from SUDO_UID and
	// SUDO_GID. Everything the orchestrator creates is owned by them.
	UID uint32
	GID uint32

	// HomeDir is the invoking user's home directory from the passwd
	// database. The sandbox layout lives beneath it.
	HomeDir string
}

// FromSudoEnv builds an Invocation from the calling process environment.
// It fails with a NotPermitted error when the process is not running as
// root, when the SUDO_* variables are missing or unparseable, or when they
// disagree with the passwd database.
func FromSudoEnv() (Invocation, error) {
	return fromEnviron(os.Geteuid(), os.Getenv, user.Lookup)
}

func fromEnviron(euid int, getenv func(string) string, lookup func(string) (*user.User, error)) (Invocation, error) {
	if euid != 0 {
		return Invocation{}, errors.NewNotPermittedError("this program must be run as root (invoke it via sudo)")
	}

	username := getenv("SUDO_USER")
	if username == "" {
		return Invocation{}, errors.NewNotPermittedError("SUDO_USER is not set: run via sudo, not from a root shell")
	}

	uid, err := parseSudoID(getenv("SUDO_UID"), "SUDO_UID")
	if err != nil {
		return Invocation{}, err
	}
	gid, err := parseSudoID(getenv("SUDO_GID"), "SUDO_GID")
	if err != nil {
		return Invocation{}, err
	}

	u, err := lookup(username)
	if err != nil {
		return Invocation{}, errors.NewNotPermittedError(fmt.Sprintf("unknown invoking user %q: %v", username, err))
	}
	if u.Uid != strconv.FormatUint(uint64(uid), 10) {
		return Invocation{}, errors.NewNotPermittedError(
			fmt.Sprintf("SUDO_UID %d does not match uid %s of user %q", uid, u.Uid, username))
	}
	if u.HomeDir == "" {
		return Invocation{}, errors.NewNotPermittedError(fmt.Sprintf("user %q has no home directory", username))
	}

	return Invocation{
		Username: username,
		UID:      uid,
		GID:      gid,
		HomeDir:  u.HomeDir,
	}, nil
}

func parseSudoID(value, name string) (uint32, error) {
	if value == "" {
		return 0, errors.NewNotPermittedError(fmt.Sprintf("%s is not set: run via sudo", name))
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, errors.NewNotPermittedError(fmt.Sprintf("%s %q is not a valid numeric id", name, value))
	}
	return uint32(id), nil
}
