package session

import (
	"slices"
	"sync"
)

const maxTranscript = 200

// Store is the shared observable state of a shell session. The workflow and
// the room adapter write to it; the presentation layer only reads snapshots.
type Store struct {
	mu sync.RWMutex

	snap         Snapshot
	participants map[string]Participant

	subs   map[int]chan Snapshot
	nextID int
}

// NewStore returns a store in the Disconnected state.
func NewStore() *Store {
	return &Store{
		snap:         Snapshot{State: Disconnected()},
		participants: make(map[string]Participant),
		subs:         make(map[int]chan Snapshot),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// State returns just the connection state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.State
}

// Subscribe returns a channel that always holds the latest snapshot. Slow
// readers skip intermediate states rather than blocking writers.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Snapshot, 1)
	ch <- s.copyLocked()
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// SetState moves the connection state. A failure overwrites the error
// message and a successful connection clears it; other transitions leave
// the last message in place.
func (s *Store) SetState(st State) {
	s.update(func() {
		s.snap.State = st
		switch st.Status {
		case StatusFailed:
			s.snap.ErrorMessage = st.Reason
		case StatusConnected:
			s.snap.ErrorMessage = ""
		case StatusDisconnected:
			s.resetRoomLocked()
		}
	})
}

// SetRoom records which room and identity the session joined.
func (s *Store) SetRoom(roomName, identity, serverURL string) {
	s.update(func() {
		s.snap.RoomName = roomName
		s.snap.LocalIdentity = identity
		s.snap.ServerURL = serverURL
	})
}

// UpsertParticipant adds or replaces a remote participant, keeping track
// counts already recorded for it.
func (s *Store) UpsertParticipant(p Participant) {
	s.update(func() {
		if old, ok := s.participants[p.Identity]; ok {
			p.AudioTracks = max(p.AudioTracks, old.AudioTracks)
			p.VideoTracks = max(p.VideoTracks, old.VideoTracks)
		}
		s.participants[p.Identity] = p
		s.rebuildRosterLocked()
	})
}

// RemoveParticipant drops a remote participant.
func (s *Store) RemoveParticipant(identity string) {
	s.update(func() {
		delete(s.participants, identity)
		s.rebuildRosterLocked()
	})
}

// ClearParticipants empties the roster.
func (s *Store) ClearParticipants() {
	s.update(func() {
		s.participants = make(map[string]Participant)
		s.rebuildRosterLocked()
	})
}

// AddTrack counts a subscribed track for a participant already in the roster.
func (s *Store) AddTrack(identity string, video bool) {
	s.update(func() {
		p, ok := s.participants[identity]
		if !ok {
			return
		}
		if video {
			p.VideoTracks++
		} else {
			p.AudioTracks++
		}
		s.participants[identity] = p
		s.rebuildRosterLocked()
	})
}

// RemoveTrack undoes AddTrack.
func (s *Store) RemoveTrack(identity string, video bool) {
	s.update(func() {
		p, ok := s.participants[identity]
		if !ok {
			return
		}
		if video && p.VideoTracks > 0 {
			p.VideoTracks--
		} else if !video && p.AudioTracks > 0 {
			p.AudioTracks--
		}
		s.participants[identity] = p
		s.rebuildRosterLocked()
	})
}

// SetCamera records whether the local camera is published and at what size.
func (s *Store) SetCamera(enabled bool, dims Dimensions) {
	s.update(func() {
		s.snap.CameraEnabled = enabled
		s.snap.CameraDimensions = dims
	})
}

// AppendChat adds a transcript line, trimming the oldest beyond the cap.
func (s *Store) AppendChat(line ChatLine) {
	s.update(func() {
		s.snap.Transcript = append(s.snap.Transcript, line)
		if n := len(s.snap.Transcript); n > maxTranscript {
			s.snap.Transcript = slices.Clone(s.snap.Transcript[n-maxTranscript:])
		}
	})
}

func (s *Store) update(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fn()

	snap := s.copyLocked()
	for _, ch := range s.subs {
		// keep only the newest snapshot in each buffer
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (s *Store) resetRoomLocked() {
	s.participants = make(map[string]Participant)
	s.snap.Participants = nil
	s.snap.AgentIdentity = ""
	s.snap.CameraEnabled = false
	s.snap.CameraDimensions = Dimensions{}
	s.snap.RoomName = ""
	s.snap.LocalIdentity = ""
	s.snap.ServerURL = ""
}

func (s *Store) rebuildRosterLocked() {
	roster := make([]Participant, 0, len(s.participants))
	for _, p := range s.participants {
		roster = append(roster, p)
	}
	sortParticipants(roster)

	s.snap.Participants = roster
	s.snap.AgentIdentity = ""
	for _, p := range roster {
		if p.Agent {
			s.snap.AgentIdentity = p.Identity
			break
		}
	}
}

func (s *Store) copyLocked() Snapshot {
	c := s.snap
	c.Participants = slices.Clone(s.snap.Participants)
	c.Transcript = slices.Clone(s.snap.Transcript)
	return c
}
