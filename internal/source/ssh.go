package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"wanlens/internal/config"
)

// SSH runs a command on a router and returns its standard output.
// It is used to pull the IS-IS link-state database as JSON.
type SSH struct {
	cfg config.SSHConfig
}

// NewSSH creates an SSH command source
func NewSSH(cfg config.SSHConfig) *SSH {
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = config.Duration(30 * time.Second)
	}
	return &SSH{cfg: cfg}
}

func (s *SSH) Kind() string { return config.SourceSSH }

func (s *SSH) Describe() string {
	return fmt.Sprintf("ssh://%s@%s (%s)", s.cfg.User, s.addr(), s.cfg.Command)
}

func (s *SSH) addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Fetch connects, runs the command and returns stdout
func (s *SSH) Fetch(ctx context.Context) ([]byte, error) {
	if s.cfg.Command == "" {
		return nil, errors.New("ssh command is empty")
	}

	clientConfig, err := s.clientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to build SSH config: %w", err)
	}

	client, err := s.connect(ctx, clientConfig)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	return s.runCommand(ctx, client)
}

func (s *SSH) connect(ctx context.Context, clientConfig *ssh.ClientConfig) (*ssh.Client, error) {
	addr := s.addr()
	dialer := &net.Dialer{Timeout: s.cfg.Timeout.Duration()}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	// ClientConfig.Timeout only covers ssh.Dial, so bound the handshake here
	if timeout := s.cfg.Timeout.Duration(); timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(timeout))
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if !stop() {
		// ctx ended during the handshake and conn is already closed
		if sshConn != nil {
			sshConn.Close()
		}
		return nil, fmt.Errorf("failed to establish SSH connection: %w", ctx.Err())
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to establish SSH connection: %w", err)
	}
	_ = conn.SetDeadline(time.Time{})
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// clientConfig prefers key auth when a key path is set and falls back to password
func (s *SSH) clientConfig() (*ssh.ClientConfig, error) {
	if s.cfg.User == "" {
		return nil, errors.New("ssh user is not configured")
	}

	var auth []ssh.AuthMethod
	if s.cfg.KeyPath != "" {
		keyData, err := os.ReadFile(s.cfg.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read private key: %w", err)
		}
		var signer ssh.Signer
		if s.cfg.Password != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(keyData, []byte(s.cfg.Password))
		} else {
			signer, err = ssh.ParsePrivateKey(keyData)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse private key: %w", err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	} else if s.cfg.Password != "" {
		auth = append(auth, ssh.Password(s.cfg.Password))
	}
	if len(auth) == 0 {
		return nil, errors.New("no ssh key_path or password configured")
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if s.cfg.KnownHostsPath != "" {
		cb, err := knownhosts.New(s.cfg.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
		hostKeyCallback = cb
	}

	return &ssh.ClientConfig{
		User:            s.cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         s.cfg.Timeout.Duration(),
	}, nil
}

func (s *SSH) runCommand(ctx context.Context, client *ssh.Client) ([]byte, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(s.cfg.Command)
	}()

	select {
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("command failed: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return stdout.Bytes(), nil
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		return nil, ctx.Err()
	case <-time.After(s.cfg.Timeout.Duration()):
		session.Signal(ssh.SIGKILL)
		return nil, errors.New("command timeout")
	}
}
