package model

import "time"

// Session owns the documents and transcripts of one browser session.
// Documents and transcripts are kept in insertion order.
type Session struct {
	ID          string       `json:"id"`
	Documents   []Document   `json:"documents"`
	Transcripts []Transcript `json:"transcripts"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	out := *s
	out.Documents = append([]Document(nil), s.Documents...)
	out.Transcripts = make([]Transcript, len(s.Transcripts))
	for i, t := range s.Transcripts {
		out.Transcripts[i] = Transcript{Key: t.Key, Turns: append([]ChatTurn(nil), t.Turns...)}
	}
	return &out
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// PutDocument inserts doc or overwrites the entry with the same name, keeping its
// position. The replaced record is returned, nil if the name was new.
func (s *Session) PutDocument(doc Document) *Document {
	s.touch()
	for i := range s.Documents {
		if s.Documents[i].Name == doc.Name {
			prev := s.Documents[i]
			s.Documents[i] = doc
			return &prev
		}
	}
	s.Documents = append(s.Documents, doc)
	return nil
}

func (s *Session) Document(name string) (Document, bool) {
	for _, d := range s.Documents {
		if d.Name == name {
			return d, true
		}
	}
	return Document{}, false
}

func (s *Session) HasDocuments() bool {
	return len(s.Documents) > 0
}

// DocumentSummaries lists documents in insertion order without their text.
func (s *Session) DocumentSummaries() []DocumentSummary {
	out := make([]DocumentSummary, 0, len(s.Documents))
	for _, d := range s.Documents {
		out = append(out, d.Summary())
	}
	return out
}

func (s *Session) DocumentNames() []string {
	out := make([]string, 0, len(s.Documents))
	for _, d := range s.Documents {
		out = append(out, d.Name)
	}
	return out
}

func (s *Session) DeleteDocument(name string) (Document, bool) {
	for i, d := range s.Documents {
		if d.Name == name {
			s.Documents = append(s.Documents[:i], s.Documents[i+1:]...)
			s.touch()
			return d, true
		}
	}
	return Document{}, false
}

// DeleteAllDocuments empties the document set and returns what it held.
func (s *Session) DeleteAllDocuments() []Document {
	removed := s.Documents
	s.Documents = nil
	s.touch()
	return removed
}

// AppendTurn adds a turn to the transcript for key, creating it when absent.
func (s *Session) AppendTurn(key, role, content string) {
	s.touch()
	for i := range s.Transcripts {
		if s.Transcripts[i].Key == key {
			s.Transcripts[i].Turns = append(s.Transcripts[i].Turns, ChatTurn{Role: role, Content: content})
			return
		}
	}
	s.Transcripts = append(s.Transcripts, Transcript{
		Key:   key,
		Turns: []ChatTurn{{Role: role, Content: content}},
	})
}

// Turns returns a copy of the transcript for key. A missing transcript is empty.
func (s *Session) Turns(key string) []ChatTurn {
	for _, t := range s.Transcripts {
		if t.Key == key {
			return append([]ChatTurn{}, t.Turns...)
		}
	}
	return []ChatTurn{}
}

// AllTurns concatenates every transcript in creation order.
func (s *Session) AllTurns() []ChatTurn {
	out := []ChatTurn{}
	for _, t := range s.Transcripts {
		out = append(out, t.Turns...)
	}
	return out
}

func (s *Session) ClearTranscript(key string) {
	for i, t := range s.Transcripts {
		if t.Key == key {
			s.Transcripts = append(s.Transcripts[:i], s.Transcripts[i+1:]...)
			s.touch()
			return
		}
	}
}

func (s *Session) ClearTranscripts() {
	s.Transcripts = nil
	s.touch()
}

// StoragePaths lists the backing file of every document.
func (s *Session) StoragePaths() []string {
	out := make([]string, 0, len(s.Documents))
	for _, d := range s.Documents {
		if d.StoragePath != "" {
			out = append(out, d.StoragePath)
		}
	}
	return out
}
