package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/policyready/policyctl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleStream = `data: {"type":"status","message":"Extracting questions from PDF..."}

data: {"type":"questions","questions":["Is encryption used?","Is MFA enforced?"],"total":2}

data: {"type":"answer","index":0,"answer":{"question":"Is encryption used?","status":"MET","confidence":0.9,"reasoning":"ok"},"progress":{"answered":1,"total":2,"met":1,"not_met":0,"partial":0}}

data: {"type":"complete","total":2,"met":1,"not_met":1,"partial":0}

`

// chunkReader delivers its payload in fixed-size chunks, forcing record
// reassembly across reads.
type chunkReader struct {
	data  []byte
	size  int
	pos   int
	final error // returned after the payload is exhausted; io.EOF if nil
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		if r.final != nil {
			return 0, r.final
		}
		return 0, io.EOF
	}
	n := r.size
	if n > len(p) {
		n = len(p)
	}
	if r.pos+n > len(r.data) {
		n = len(r.data) - r.pos
	}
	copy(p, r.data[r.pos:r.pos+n])
	r.pos += n
	return n, nil
}

func drain(t *testing.T, d *Decoder) ([]*models.AnalysisEvent, error) {
	t.Helper()
	var events []*models.AnalysisEvent
	for {
		ev, err := d.Next(context.Background())
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
}

func eventTypes(events []*models.AnalysisEvent) []models.EventType {
	types := make([]models.EventType, len(events))
	for i, ev := range events {
		types[i] = ev.Type
	}
	return types
}

func TestDecoder_SingleChunk(t *testing.T) {
	d := NewDecoder(strings.NewReader(sampleStream))

	events, err := drain(t, d)
	require.Equal(t, io.EOF, err)
	assert.Equal(t, []models.EventType{
		models.EventStatus,
		models.EventQuestions,
		models.EventAnswer,
		models.EventComplete,
	}, eventTypes(events))
}

func TestDecoder_ChunkBoundaryInvariance(t *testing.T) {
	reference := NewDecoder(strings.NewReader(sampleStream))
	want, err := drain(t, reference)
	require.Equal(t, io.EOF, err)

	// Every chunk size, including splits in the middle of a record, must
	// yield the identical event sequence.
	for _, size := range []int{1, 2, 3, 5, 7, 16, 64, 1024} {
		d := NewDecoder(&chunkReader{data: []byte(sampleStream), size: size})
		got, err := drain(t, d)
		require.Equal(t, io.EOF, err, "chunk size %d", size)
		require.Equal(t, eventTypes(want), eventTypes(got), "chunk size %d", size)
		for i := range want {
			assert.Equal(t, want[i], got[i], "chunk size %d, event %d", size, i)
		}
	}
}

func TestDecoder_MalformedRecordDropped(t *testing.T) {
	input := "data: {\"type\":\"status\",\"message\":\"ok\"}\n" +
		"data: {not json at all\n" +
		"data: {\"type\":\"mystery\",\"message\":\"x\"}\n" +
		"data: {\"type\":\"complete\",\"total\":0,\"met\":0,\"not_met\":0,\"partial\":0}\n"

	d := NewDecoder(strings.NewReader(input))
	events, err := drain(t, d)
	require.Equal(t, io.EOF, err)
	assert.Equal(t, []models.EventType{models.EventStatus, models.EventComplete}, eventTypes(events))
}

func TestDecoder_NonRecordLinesIgnored(t *testing.T) {
	input := ": keepalive comment\n" +
		"event: message\n" +
		"data: {\"type\":\"status\",\"message\":\"ok\"}\n"

	d := NewDecoder(strings.NewReader(input))
	events, err := drain(t, d)
	require.Equal(t, io.EOF, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventStatus, events[0].Type)
}

func TestDecoder_TrailingRecordWithoutNewline(t *testing.T) {
	input := "data: {\"type\":\"status\",\"message\":\"one\"}\n" +
		`data: {"type":"status","message":"two"}` // no trailing newline

	d := NewDecoder(strings.NewReader(input))
	events, err := drain(t, d)
	require.Equal(t, io.EOF, err)
	require.Len(t, events, 2)
	assert.Equal(t, "two", events[1].Status.Message)
}

func TestDecoder_SourceFailureIsInterrupted(t *testing.T) {
	src := &chunkReader{
		data:  []byte("data: {\"type\":\"status\",\"message\":\"working\"}\n"),
		size:  1024,
		final: errors.New("connection reset"),
	}

	d := NewDecoder(src)

	ev, err := d.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.EventStatus, ev.Type)

	_, err = d.Next(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.Contains(t, err.Error(), "connection reset")
	assert.True(t, d.Interrupted())

	// The sequence is over; further calls keep returning the same fault.
	_, err = d.Next(context.Background())
	assert.ErrorIs(t, err, ErrInterrupted)
}

func TestDecoder_CleanEndIsNotInterrupted(t *testing.T) {
	d := NewDecoder(strings.NewReader("data: {\"type\":\"status\",\"message\":\"x\"}\n"))

	_, err := d.Next(context.Background())
	require.NoError(t, err)

	_, err = d.Next(context.Background())
	require.Equal(t, io.EOF, err)
	assert.False(t, d.Interrupted())
}

func TestDecoder_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDecoder(strings.NewReader(sampleStream))
	_, err := d.Next(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInterrupted)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecoder_QueuedEventsSurviveSourceFailure(t *testing.T) {
	// Two records arrive in one chunk, then the source dies: both decoded
	// events must still be delivered before the fault.
	src := &chunkReader{
		data: []byte("data: {\"type\":\"status\",\"message\":\"a\"}\n" +
			"data: {\"type\":\"status\",\"message\":\"b\"}\n"),
		size:  1024,
		final: errors.New("broken pipe"),
	}

	d := NewDecoder(src)
	events, err := drain(t, d)
	assert.ErrorIs(t, err, ErrInterrupted)
	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Status.Message)
	assert.Equal(t, "b", events[1].Status.Message)
}
