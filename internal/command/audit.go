package command

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Outcome is the result recorded for a command.
type Outcome string

const (
	OutcomeOK         Outcome = "ok"
	OutcomeValidation Outcome = Outcome(KindValidation)
	OutcomeTimeout    Outcome = Outcome(KindTimeout)
	OutcomeInternal   Outcome = Outcome(KindInternal)
)

// AuditRecord describes one command execution, successful or not.
type AuditRecord struct {
	ID           string        `json:"id" yaml:"id"`
	ActionType   string        `json:"actionType" yaml:"actionType"`
	Outcome      Outcome       `json:"outcome" yaml:"outcome"`
	Message      string        `json:"message,omitempty" yaml:"message,omitempty"`
	Start        time.Time     `json:"start" yaml:"start"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	BeforeDigest string        `json:"beforeDigest,omitempty" yaml:"beforeDigest,omitempty"`
	AfterDigest  string        `json:"afterDigest,omitempty" yaml:"afterDigest,omitempty"`
	TraceID      string        `json:"traceId,omitempty" yaml:"traceId,omitempty"`
	SpanID       string        `json:"spanId,omitempty" yaml:"spanId,omitempty"`
}

// AuditSink receives every audit record.
type AuditSink interface {
	Record(AuditRecord) error
}

// Discard drops audit records.
var Discard AuditSink = discardSink{}

type discardSink struct{}

func (discardSink) Record(AuditRecord) error { return nil }

// MemorySink keeps audit records in memory. Safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	records []AuditRecord
}

func (s *MemorySink) Record(r AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
	return nil
}

// Records returns a copy of everything recorded so far.
func (s *MemorySink) Records() []AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditRecord, len(s.records))
	copy(out, s.records)
	return out
}

// WriterSink writes one JSON object per line.
type WriterSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{enc: json.NewEncoder(w)}
}

func (s *WriterSink) Record(r AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(r)
}
