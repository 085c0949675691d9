// Package session implements the interactive command loop over the cached
// snapshots.
package session

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Kamar-Folarin/github-trending/internal/errors"
	"github.com/Kamar-Folarin/github-trending/internal/models"
)

const prompt = "> "

// Reader is the read side of the snapshot store
type Reader interface {
	ListSnapshots(ctx context.Context) ([]*models.Snapshot, error)
	GetSnapshot(ctx context.Context, id int64) (*models.Snapshot, error)
	GetSnapshotByName(ctx context.Context, name string) (*models.Snapshot, error)
}

// Controller is the sync control surface the loop can drive
type Controller interface {
	Offline() bool
	Refresh(ctx context.Context) error
}

// Session reads one command per line and writes results to out
type Session struct {
	store   Reader
	control Controller
	render  *Renderer
	out     io.Writer
	logger  *logrus.Logger
}

// New returns a session reading from store and writing to out
func New(store Reader, control Controller, out io.Writer, logger *logrus.Logger) *Session {
	return &Session{
		store:   store,
		control: control,
		render:  NewRenderer(out),
		out:     out,
		logger:  logger,
	}
}

// PrintHelp prints the command table
func (s *Session) PrintHelp() {
	s.render.Help(Commands)
}

// Run prompts and dispatches until quit, end of input or ctx is cancelled.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		io.WriteString(s.out, prompt)

		select {
		case <-ctx.Done():
			io.WriteString(s.out, "\n")
			return nil
		case line, ok := <-lines:
			if !ok {
				io.WriteString(s.out, "\n")
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			if quit := s.Execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// Execute handles a single input line and reports whether the session should end.
func (s *Session) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	command, args := fields[0], fields[1:]
	s.logger.WithFields(logrus.Fields{"command": command, "args": args}).Debug("Dispatching command")

	switch command {
	case "?", "help":
		s.PrintHelp()
	case "q", "quit":
		return true
	case "list":
		s.list(ctx)
	case "get":
		s.get(ctx, args)
	case "refresh":
		s.refresh(ctx)
	default:
		s.render.Line("Unknown command")
	}
	return false
}

func (s *Session) list(ctx context.Context) {
	snapshots, err := s.store.ListSnapshots(ctx)
	if err != nil {
		s.readFailed(err, "")
		return
	}
	for _, snapshot := range snapshots {
		s.render.Snapshot(snapshot)
	}
}

func (s *Session) get(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.render.Line("Usage: get <ID | NAME>")
		return
	}
	token := args[0]

	var (
		snapshot *models.Snapshot
		err      error
	)
	if id, convErr := strconv.ParseInt(token, 10, 64); convErr == nil {
		snapshot, err = s.store.GetSnapshot(ctx, id)
	} else {
		snapshot, err = s.store.GetSnapshotByName(ctx, token)
	}

	switch {
	case errors.IsNotFound(err):
		s.render.Line("%s not found", token)
	case err != nil:
		s.readFailed(err, token)
	default:
		s.render.Snapshot(snapshot)
	}
}

// readFailed logs a failed lookup; the session keeps running either way
func (s *Session) readFailed(err error, key string) {
	logger := s.logger.WithError(err)
	if key != "" {
		logger = logger.WithField("key", key)
	}
	if errors.IsStore(err) {
		logger.Error("Database read failed")
		return
	}
	logger.Error("Failed to read repositories")
}

func (s *Session) refresh(ctx context.Context) {
	if s.control.Offline() {
		s.render.Line("Refresh is disabled in offline mode.")
		return
	}
	if err := s.control.Refresh(ctx); err != nil {
		s.logger.WithError(err).Error("Refresh failed")
	}
}
