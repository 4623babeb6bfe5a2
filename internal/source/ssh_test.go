package source

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"

	"wanlens/internal/config"
)

// startSSHServer runs a minimal exec-only SSH server that answers every
// command with output and records the last command it ran.
func startSSHServer(t *testing.T, output string) (string, int, <-chan string) {
	t.Helper()

	_, hostKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(hostKey)
	require.NoError(t, err)

	serverConfig := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pass []byte) (*ssh.Permissions, error) {
			if c.User() == "ops" && string(pass) == "secret" {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	serverConfig.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	commands := make(chan string, 4)
	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go serveSSH(nc, serverConfig, output, commands)
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, commands
}

func serveSSH(nc net.Conn, cfg *ssh.ServerConfig, output string, commands chan<- string) {
	sconn, chans, reqs, err := ssh.NewServerConn(nc, cfg)
	if err != nil {
		nc.Close()
		return
	}
	defer sconn.Close()
	go ssh.DiscardRequests(reqs)

	for nch := range chans {
		if nch.ChannelType() != "session" {
			nch.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, creqs, err := nch.Accept()
		if err != nil {
			continue
		}
		go func() {
			for req := range creqs {
				if req.Type != "exec" {
					req.Reply(false, nil)
					continue
				}
				var payload struct{ Command string }
				ssh.Unmarshal(req.Payload, &payload)
				commands <- payload.Command
				req.Reply(true, nil)
				ch.Write([]byte(output))
				ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
				ch.Close()
				return
			}
		}()
	}
}

func TestSSH_Fetch(t *testing.T) {
	host, port, commands := startSSHServer(t, `{"vrfs":{"default":{}}}`)

	src := NewSSH(config.SSHConfig{
		Host:     host,
		Port:     port,
		User:     "ops",
		Password: "secret",
		Command:  "show isis database detail | json",
		Timeout:  config.Duration(5 * time.Second),
	})
	assert.Equal(t, config.SourceSSH, src.Kind())
	assert.Contains(t, src.Describe(), net.JoinHostPort(host, strconv.Itoa(port)))

	data, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"vrfs":{"default":{}}}`, string(data))
	assert.Equal(t, "show isis database detail | json", <-commands)
}

func TestSSH_Fetch_AuthFailure(t *testing.T) {
	host, port, _ := startSSHServer(t, "")

	src := NewSSH(config.SSHConfig{
		Host:     host,
		Port:     port,
		User:     "ops",
		Password: "wrong",
		Command:  "show isis database detail | json",
		Timeout:  config.Duration(5 * time.Second),
	})
	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to establish SSH connection")
}

func TestSSH_ClientConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SSHConfig
		wantErr string
	}{
		{"no user", config.SSHConfig{Password: "x"}, "user"},
		{"no credentials", config.SSHConfig{User: "ops"}, "no ssh key_path or password"},
		{"missing key file", config.SSHConfig{User: "ops", KeyPath: "/nonexistent/id_ed25519"}, "read private key"},
		{"missing known_hosts", config.SSHConfig{User: "ops", Password: "x", KnownHostsPath: "/nonexistent/known_hosts"}, "known_hosts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSSH(tt.cfg).clientConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSSH_ClientConfig_BadKey(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(keyPath, []byte("not a key"), 0600))

	_, err := NewSSH(config.SSHConfig{User: "ops", KeyPath: keyPath}).clientConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse private key")
}

func TestSSH_Fetch_EmptyCommand(t *testing.T) {
	_, err := NewSSH(config.SSHConfig{Host: "rtr1", User: "ops", Password: "x"}).Fetch(context.Background())
	assert.Error(t, err)
}

// startSilentServer accepts TCP connections and never sends an SSH banner
func startSilentServer(t *testing.T) (string, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var conns []net.Conn
	accepted := make(chan struct{})
	go func() {
		defer close(accepted)
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, nc)
		}
	}()
	t.Cleanup(func() {
		ln.Close()
		<-accepted
		for _, nc := range conns {
			nc.Close()
		}
	})

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port
}

func TestSSH_Fetch_HandshakeStall(t *testing.T) {
	tests := []struct {
		name       string
		timeout    time.Duration
		ctxTimeout time.Duration
	}{
		{"configured timeout", 300 * time.Millisecond, 0},
		{"context deadline", time.Minute, 300 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port := startSilentServer(t)
			src := NewSSH(config.SSHConfig{
				Host:     host,
				Port:     port,
				User:     "ops",
				Password: "secret",
				Command:  "show isis database detail | json",
				Timeout:  config.Duration(tt.timeout),
			})

			ctx := context.Background()
			if tt.ctxTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.ctxTimeout)
				defer cancel()
			}

			done := make(chan error, 1)
			go func() {
				_, err := src.Fetch(ctx)
				done <- err
			}()

			select {
			case err := <-done:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "failed to establish SSH connection")
				if tt.ctxTimeout > 0 {
					assert.True(t, errors.Is(err, context.DeadlineExceeded))
				}
			case <-time.After(5 * time.Second):
				t.Fatal("Fetch did not return while the server withheld its banner")
			}
		})
	}
}
