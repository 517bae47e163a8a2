package engine

import "sync"

// Stream delivers one turn's response as an ordered sequence of text
// fragments. The producer pushes fragments as the backend emits them;
// consumers pull:
//
//	stream := eng.Send(ctx, "hello")
//	for stream.Next() {
//	    fmt.Print(stream.Current())
//	}
//	if err := stream.Err(); err != nil { ... }
//
// Abandoning a stream mid-turn requires cancelling the context passed to
// Send; the engine then stops forwarding and commits nothing.
type Stream struct {
	fragments chan string
	current   string

	mu        sync.Mutex
	err       error
	commitErr error
	text      string
}

func newStream() *Stream {
	return &Stream{fragments: make(chan string, 8)}
}

// Next blocks until the next fragment arrives. It returns false once the
// turn is over, after which Err, Text, and CommitErr are stable.
func (s *Stream) Next() bool {
	frag, ok := <-s.fragments
	if !ok {
		return false
	}
	s.current = frag
	return true
}

// Current returns the fragment read by the last call to Next.
func (s *Stream) Current() string {
	return s.current
}

// Err reports the turn-level failure, if any. A generation backend error
// or a cancellation shows up here; memory failures do not.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Text returns the full committed response. Empty when the turn failed.
func (s *Stream) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// CommitErr reports a memory commit failure after a successful generation.
// The response was still delivered and appended to history; the failure is
// surfaced here so callers can warn the user.
func (s *Stream) CommitErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitErr
}

// producer side

func (s *Stream) push(frag string, cancel <-chan struct{}) bool {
	select {
	case s.fragments <- frag:
		return true
	case <-cancel:
		return false
	}
}

func (s *Stream) finish(text string, err, commitErr error) {
	s.mu.Lock()
	s.text = text
	s.err = err
	s.commitErr = commitErr
	s.mu.Unlock()
	close(s.fragments)
}
