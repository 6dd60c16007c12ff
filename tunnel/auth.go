package tunnel

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/term"

	lwerr "linewire/internal/errors"
)

// defaultKeyNames are tried in ~/.ssh when no method was configured.
var defaultKeyNames = []string{"id_ed25519", "id_ecdsa", "id_rsa"} //nolint:gochecknoglobals

// keyring merges key files and agent keys into one "publickey" method.
// The SSH client tries each method name once, so separate PublicKeys
// methods would hide every key after the first.
type keyring struct {
	files []ssh.Signer
	agent agent.ExtendedAgent
}

func (k *keyring) empty() bool { return len(k.files) == 0 && k.agent == nil }

func (k *keyring) signers() ([]ssh.Signer, error) {
	out := append([]ssh.Signer(nil), k.files...)
	if k.agent != nil {
		// A broken agent should not hide the key files.
		if s, err := k.agent.Signers(); err == nil {
			out = append(out, s...)
		}
	}
	return out, nil
}

// BuildAuthMethods returns the methods offered to the gateway.
//
// With --ssh-key, --ssh-agent or --ssh-password set, exactly those are
// used and any of them failing is an error.  Otherwise the agent and
// the default keys in ~/.ssh are tried, skipping whatever is missing.
func BuildAuthMethods(cfg *SSHConfig) ([]ssh.AuthMethod, error) {
	var ring keyring

	explicit := cfg.KeyPath != "" || cfg.UseAgent || cfg.PromptPass
	if explicit {
		if cfg.KeyPath != "" {
			s, err := loadKey(cfg.KeyPath)
			if err != nil {
				return nil, fmt.Errorf("key %s: %w", cfg.KeyPath, err)
			}
			ring.files = append(ring.files, s)
		}
		if cfg.UseAgent {
			a, err := dialAgent()
			if err != nil {
				return nil, fmt.Errorf("ssh-agent: %w", err)
			}
			ring.agent = a
		}
	} else {
		ring.agent, _ = dialAgent()
		ring.files = defaultKeys()
	}

	var methods []ssh.AuthMethod
	if !ring.empty() {
		methods = append(methods, ssh.PublicKeysCallback(ring.signers))
	}
	if cfg.PromptPass {
		pass, err := readSecret(fmt.Sprintf("%s@%s's password: ", cfg.User, cfg.Host))
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}
		methods = append(methods, ssh.Password(string(pass)))
	}

	if len(methods) == 0 {
		return nil, fmt.Errorf("%w: no keys found, use --ssh-key, --ssh-agent or --ssh-password",
			lwerr.ErrAuthFailed)
	}
	return methods, nil
}

// loadKey parses a private key file, prompting for its passphrase when
// the key is encrypted.
func loadKey(path string) (ssh.Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(data)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		pass, perr := readSecret(fmt.Sprintf("Enter passphrase for %s: ", path))
		if perr != nil {
			return nil, fmt.Errorf("reading passphrase: %w", perr)
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, pass)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	return signer, nil
}

func dialAgent() (agent.ExtendedAgent, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, errors.New("SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, err
	}
	return agent.NewClient(conn), nil
}

// defaultKeys loads the unencrypted keys among defaultKeyNames.
// Encrypted ones are skipped rather than prompting for each.
func defaultKeys() []ssh.Signer {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	var out []ssh.Signer
	for _, name := range defaultKeyNames {
		data, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		if s, err := ssh.ParsePrivateKey(data); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// readSecret prompts on stderr and reads a line from the terminal
// without echo.
func readSecret(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	return secret, err
}

// hostKeyCallback verifies against known_hosts when StrictHostKey is
// set and accepts any key otherwise.
func hostKeyCallback(cfg *SSHConfig) (ssh.HostKeyCallback, error) {
	if !cfg.StrictHostKey {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec
	}

	path := cfg.KnownHosts
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}

	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("known_hosts: %w", err)
	}
	return cb, nil
}
