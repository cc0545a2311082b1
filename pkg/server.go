package pkg

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/creack/pty"
	"github.com/gliderlabs/ssh"
	"github.com/rs/zerolog"
	gossh "golang.org/x/crypto/ssh"

	"github.com/qnkhuat/termground/pkg/oracle"
)

const (
	ServerIdleTimeout = 5 * time.Minute
	SshPort           = ":2222"
	ServerPort        = ":1998"
	ConnQueueSize     = 20
)

type ServerConfig struct {
	TCPAddr string
	SSHAddr string
	// HostKeyFile is the SSH host key; a fresh key is generated when empty
	HostKeyFile string
	// Chessterm is the client binary started for every SSH session
	Chessterm   string
	Clock       time.Duration
	Increment   time.Duration
	IdleTimeout time.Duration
	Logger      zerolog.Logger
}

type Server struct {
	Matches map[string]*Match

	cfg    ServerConfig
	oracle oracle.Oracle
	ssh    *ssh.Server
	nextId int
	log    zerolog.Logger

	sync.Mutex
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.TCPAddr == "" {
		cfg.TCPAddr = ServerPort
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = ServerIdleTimeout
	}
	return &Server{
		Matches: make(map[string]*Match),
		cfg:     cfg,
		oracle:  oracle.NewLocal(cfg.Logger),
		log:     cfg.Logger,
	}
}

// dialAddr is the address SSH sessions use to reach the match server.
func (s *Server) dialAddr() string {
	host, port, err := net.SplitHostPort(s.cfg.TCPAddr)
	if err != nil {
		return s.cfg.TCPAddr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return net.JoinHostPort(host, port)
}

func (s *Server) sshHandle(sess ssh.Session) {
	ptyReq, winCh, isPty := sess.Pty()
	if !isPty {
		io.WriteString(sess, "non-interactive terminals are not supported\n")
		sess.Exit(1)
		return
	}

	cmdCtx, cancelCmd := context.WithCancel(sess.Context())
	defer cancelCmd()

	args := []string{"-connect", s.dialAddr(), "-name", sess.User()}
	// ssh host -t <match> joins that match
	if command := sess.Command(); len(command) > 0 {
		args = append(args, "-match", command[0])
	}
	cmd := exec.CommandContext(cmdCtx, s.cfg.Chessterm, args...)
	cmd.Env = append(os.Environ(), fmt.Sprintf("TERM=%s", ptyReq.Term))

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(ptyReq.Window.Height),
		Cols: uint16(ptyReq.Window.Width),
	})
	if err != nil {
		io.WriteString(sess, fmt.Sprintf("failed to initialize pseudo-terminal: %s\n", err))
		sess.Exit(1)
		return
	}
	defer f.Close()
	s.log.Info().Str("user", sess.User()).Str("remote", sess.RemoteAddr().String()).Msg("ssh session")

	go func() {
		for win := range winCh {
			if err := pty.Setsize(f, &pty.Winsize{Rows: uint16(win.Height), Cols: uint16(win.Width)}); err != nil {
				s.log.Warn().Err(err).Msg("resize pty")
			}
		}
	}()

	go func() {
		io.Copy(f, sess)
	}()
	io.Copy(sess, f)

	f.Close()
	cmd.Wait()
}

func (s *Server) hostKey() (ssh.Option, error) {
	if s.cfg.HostKeyFile != "" {
		return ssh.HostKeyFile(s.cfg.HostKeyFile), nil
	}
	_, key, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	signer, err := gossh.NewSignerFromKey(key)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("fingerprint", gossh.FingerprintSHA256(signer.PublicKey())).Msg("generated host key")
	return func(srv *ssh.Server) error {
		srv.AddHostKey(signer)
		return nil
	}, nil
}

// ListenSSH serves chessterm over SSH until the server is shut down.
func (s *Server) ListenSSH() error {
	if s.cfg.Chessterm == "" {
		return errors.New("ssh: chessterm binary not set")
	}
	srv := &ssh.Server{
		Addr:        s.cfg.SSHAddr,
		IdleTimeout: s.cfg.IdleTimeout,
		Handler:     s.sshHandle,
		PtyCallback: func(ctx ssh.Context, pty ssh.Pty) bool {
			return true
		},
	}
	opt, err := s.hostKey()
	if err != nil {
		return fmt.Errorf("ssh host key: %w", err)
	}
	if err := srv.SetOption(opt); err != nil {
		return fmt.Errorf("ssh host key: %w", err)
	}

	s.Lock()
	s.ssh = srv
	s.Unlock()

	s.log.Info().Str("addr", s.cfg.SSHAddr).Msg("ssh listening")
	err = srv.ListenAndServe()
	if errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return err
}

// Serve accepts match connections on l until ctx is done.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		l.Close()
	}()
	s.log.Info().Str("addr", l.Addr().String()).Msg("listening")
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Error().Err(err).Msg("accept")
			continue
		}
		go s.HandleConn(ctx, conn)
	}
}

// HandleConn runs one client: the first message must be a join, every other
// message goes to the joined match.
func (s *Server) HandleConn(ctx context.Context, conn net.Conn) {
	s.Lock()
	s.nextId++
	p := NewPlayer(conn, s.nextId, s.log)
	s.Unlock()

	go p.HandleWrite()

	var match *Match
	err := p.HandleRead(func(t MessageTransport, message MessageInterface) {
		if match != nil {
			match.Handle(ctx, p, t, message)
			return
		}
		join, ok := message.(MessageJoin)
		if !ok {
			p.Send(MessageReject{Reason: "join a match first"}, t.RequestId)
			return
		}
		p.Name = join.Name
		m, err := s.Join(ctx, p, join.MatchId)
		if err != nil {
			p.log.Warn().Err(err).Str("match", join.MatchId).Msg("join")
			p.Send(MessageReject{Reason: err.Error()}, t.RequestId)
			return
		}
		match = m
	})
	if err != nil && !errors.Is(err, net.ErrClosed) {
		p.log.Debug().Err(err).Msg("read")
	}

	if match != nil {
		match.RemovePlayer(p)
	} else {
		p.Disconnect()
	}
}

// Join seats p in match id, creating the match on demand. An empty id
// creates a match with a fresh name.
func (s *Server) Join(ctx context.Context, p *Player, id string) (*Match, error) {
	s.Lock()
	defer s.Unlock()

	if id == "" {
		for id == "" || s.Matches[id] != nil {
			id = petname.Generate(3, "-")
		}
	}
	m, ok := s.Matches[id]
	if !ok {
		var err error
		m, err = NewMatch(ctx, id, s.oracle, MatchConfig{
			Clock:     s.cfg.Clock,
			Increment: s.cfg.Increment,
			Logger:    s.log,
		})
		if err != nil {
			return nil, err
		}
		s.Matches[id] = m
		s.log.Info().Str("match", id).Msg("match created")
	}
	if _, err := m.AddPlayer(p); err != nil {
		return nil, err
	}
	return m, nil
}

// CleanIdleMatches drops empty or idle matches every interval until ctx ends.
func (s *Server) CleanIdleMatches(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s.cleanIdle()
		}
	}
}

func (s *Server) cleanIdle() {
	s.Lock()
	defer s.Unlock()

	for id, m := range s.Matches {
		if m.Empty() || m.Idle(s.cfg.IdleTimeout) {
			delete(s.Matches, id)
			s.log.Info().Str("match", id).Msg("match removed")
		}
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.Lock()
	srv := s.ssh
	s.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
