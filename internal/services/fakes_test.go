package services

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"gorm.io/gorm"

	"github.com/yungbote/maia-backend/internal/data/repos"
	"github.com/yungbote/maia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/maia-backend/internal/domain"
	"github.com/yungbote/maia-backend/internal/platform/assistant"
	"github.com/yungbote/maia-backend/internal/platform/ctxutil"
	"github.com/yungbote/maia-backend/internal/platform/dbctx"
)

// fakeStream replays a fixed list of chunks, then io.EOF.
type fakeStream struct {
	chunks []assistant.Chunk
	err    error
	pos    int
	closed bool
}

func (s *fakeStream) Next(ctx context.Context) (assistant.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return assistant.Chunk{}, err
	}
	if s.pos >= len(s.chunks) {
		if s.err != nil {
			return assistant.Chunk{}, s.err
		}
		return assistant.Chunk{}, io.EOF
	}
	c := s.chunks[s.pos]
	s.pos++
	return c, nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type submitCall struct {
	threadID string
	runID    string
	outputs  []assistant.ToolOutput
}

type addCall struct {
	threadID string
	content  string
	memory   string
}

// fakeAssistant records every call. Errors set on the struct are returned by
// the matching method.
type fakeAssistant struct {
	mu sync.Mutex

	threads     map[string]*assistant.Thread
	streams     []*fakeStream
	reply       string
	nextThread  int
	adds        []addCall
	submits     []submitCall
	uploads     []string
	created     []string
	streamCalls int

	createErr error
	threadErr error
	getErr    error
	addErr    error
	streamErr error
	uploadErr error
}

func newFakeAssistant() *fakeAssistant {
	return &fakeAssistant{threads: map[string]*assistant.Thread{}}
}

func (f *fakeAssistant) CreateAssistant(ctx context.Context, name, description string, tools []openai.Tool) (*assistant.Assistant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, name)
	return &assistant.Assistant{AssistantID: "asst-" + name, Name: name}, nil
}

func (f *fakeAssistant) CreateThread(ctx context.Context, assistantID string) (*assistant.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.threadErr != nil {
		return nil, f.threadErr
	}
	f.nextThread++
	t := &assistant.Thread{ThreadID: "thread-" + uuid.NewString()[:8]}
	f.threads[t.ThreadID] = t
	return t, nil
}

func (f *fakeAssistant) GetThread(ctx context.Context, threadID string) (*assistant.Thread, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if t, ok := f.threads[threadID]; ok {
		return t, nil
	}
	return &assistant.Thread{ThreadID: threadID}, nil
}

func (f *fakeAssistant) AddMessage(ctx context.Context, threadID, content, memory string) (*assistant.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds = append(f.adds, addCall{threadID: threadID, content: content, memory: memory})
	if f.addErr != nil {
		return nil, f.addErr
	}
	return &assistant.Message{Role: "assistant", Content: f.reply}, nil
}

func (f *fakeAssistant) StreamMessage(ctx context.Context, threadID, content, memory string) (assistant.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamCalls++
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	return f.popStream(), nil
}

func (f *fakeAssistant) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) (assistant.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits = append(f.submits, submitCall{threadID: threadID, runID: runID, outputs: outputs})
	return f.popStream(), nil
}

func (f *fakeAssistant) UploadDocument(ctx context.Context, assistantID, fileName string, data []byte) (*assistant.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, fileName)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &assistant.Document{DocumentID: "doc-" + fileName, Status: "processed"}, nil
}

func (f *fakeAssistant) popStream() assistant.Stream {
	if len(f.streams) == 0 {
		return &fakeStream{}
	}
	s := f.streams[0]
	f.streams = f.streams[1:]
	return s
}

func callerCtx(u *types.User, threadID string) dbctx.Context {
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{
		UserID:   u.ID,
		Email:    u.Email,
		Role:     string(u.Role),
		ThreadID: threadID,
	})
	return dbctx.Of(ctx)
}

// world is a migrated database plus the repos the services need.
type world struct {
	db        *gorm.DB
	users     repos.UserRepo
	patients  repos.PatientRepo
	links     repos.LinkRepo
	alerts    repos.AlertRepo
	reports   repos.ReportRepo
	notes     repos.NoteRepo
	documents repos.DocumentRepo
}

func newWorld(t *testing.T) *world {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	return &world{
		db:        gdb,
		users:     repos.NewUserRepo(gdb, log),
		patients:  repos.NewPatientRepo(gdb, log),
		links:     repos.NewLinkRepo(gdb, log),
		alerts:    repos.NewAlertRepo(gdb, log),
		reports:   repos.NewReportRepo(gdb, log),
		notes:     repos.NewNoteRepo(gdb, log),
		documents: repos.NewDocumentRepo(gdb, log),
	}
}
