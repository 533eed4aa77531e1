package usersync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/2beens/rapidfit/internal/userdata"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const localKeyPrefix = "userdata/"

// ErrRemoteUnavailable wraps push failures; the local copy is already written when it is returned.
var ErrRemoteUnavailable = errors.New("remote unavailable")

func localKey(dataType userdata.DataType) string {
	return localKeyPrefix + string(dataType)
}

// SyncReport tells what a Load did with the server copy.
type SyncReport struct {
	Pulled    []userdata.DataType
	Pushed    []userdata.DataType
	RemoteErr error
	// LocalErrs lists the kinds whose local copy could not be read
	LocalErrs []error
}

// Session holds the user data of one user session. The local copy is
// authoritative until a Load merges the server copy in.
type Session struct {
	local  LocalStore
	remote Remote

	mu   sync.RWMutex
	data map[userdata.DataType][]byte
}

// NewSession creates a session; remote may be nil for a local only session.
func NewSession(local LocalStore, remote Remote) *Session {
	return &Session{
		local:  local,
		remote: remote,
		data:   make(map[userdata.DataType][]byte),
	}
}

func (s *Session) authenticated() bool {
	return s.remote != nil && s.remote.Authenticated()
}

// Load reads the local cache, then merges the server copy when authenticated:
// a non empty server document replaces the local one, and a non empty local
// document is pushed when the server has none.
func (s *Session) Load(ctx context.Context) (SyncReport, error) {
	var report SyncReport

	local := make(map[userdata.DataType][]byte, len(userdata.AllDataTypes))
	for _, dataType := range userdata.AllDataTypes {
		data, err := s.local.Load(ctx, localKey(dataType))
		if err != nil {
			// unreadable local copy counts as empty, the server copy or defaults take over
			log.Errorf("user sync: load local %s: %s", dataType, err)
			report.LocalErrs = append(report.LocalErrs, fmt.Errorf("load local %s: %w", dataType, err))
			data = nil
		}
		local[dataType] = data
	}

	s.mu.Lock()
	for dataType, data := range local {
		s.data[dataType] = data
	}
	s.mu.Unlock()

	if !s.authenticated() {
		return report, nil
	}

	remote, err := s.remote.FetchAll(ctx)
	if err != nil {
		log.Warnf("user sync: fetch server data: %s", err)
		report.RemoteErr = err
		return report, nil
	}

	toPush := make(map[userdata.DataType][]byte)
	for _, dataType := range userdata.AllDataTypes {
		serverData := remote[dataType]
		switch {
		case !IsEmpty(serverData):
			s.mu.Lock()
			s.data[dataType] = serverData
			s.mu.Unlock()
			if err := s.local.Save(ctx, localKey(dataType), serverData); err != nil {
				log.Errorf("user sync: cache server %s: %s", dataType, err)
			}
			report.Pulled = append(report.Pulled, dataType)
		case !IsEmpty(local[dataType]):
			toPush[dataType] = local[dataType]
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	var pushedMu sync.Mutex
	for dataType, data := range toPush {
		g.Go(func() error {
			if err := s.remote.Push(gctx, dataType, data); err != nil {
				return fmt.Errorf("push %s: %w", dataType, err)
			}
			pushedMu.Lock()
			report.Pushed = append(report.Pushed, dataType)
			pushedMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warnf("user sync: bootstrap push: %s", err)
		report.RemoteErr = err
	}

	return report, nil
}

// Get returns the current document of the kind, its empty default when there is none.
func (s *Session) Get(dataType userdata.DataType) []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data := s.data[dataType]
	if len(data) == 0 {
		return dataType.Default()
	}
	res := make([]byte, len(data))
	copy(res, data)
	return res
}

// Set replaces the whole document of the kind, locally first, then on the
// server when authenticated. Deletions are a Set of the reduced document.
func (s *Session) Set(ctx context.Context, dataType userdata.DataType, data []byte) error {
	if !dataType.IsValid() {
		return userdata.ErrInvalidDataType
	}

	if err := s.local.Save(ctx, localKey(dataType), data); err != nil {
		return fmt.Errorf("save local %s: %w", dataType, err)
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	s.mu.Lock()
	s.data[dataType] = stored
	s.mu.Unlock()

	if !s.authenticated() {
		return nil
	}

	if err := s.remote.Push(ctx, dataType, data); err != nil {
		log.Warnf("user sync: push %s: %s", dataType, err)
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return nil
}

// Clear drops all local documents, used when the user logs out.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.data = make(map[userdata.DataType][]byte)
	s.mu.Unlock()

	for _, dataType := range userdata.AllDataTypes {
		if err := s.local.Delete(ctx, localKey(dataType)); err != nil {
			return err
		}
	}
	return nil
}
