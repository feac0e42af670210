package deepgram

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TranscriptionClient streams audio to deepgram's live transcription API and
// reports transcripts through the callbacks passed to Transcribe.
type TranscriptionClient struct {
	conn   *websocket.Conn
	connMu sync.Mutex

	lastMsgTs time.Time

	accumulatedTranscript string
	unendedSegment        bool
}

func NewTranscriptionClient() *TranscriptionClient {
	return &TranscriptionClient{lastMsgTs: time.Now()}
}

func (s *TranscriptionClient) Close(ctx context.Context) error {
	return s.StopStream()
}
