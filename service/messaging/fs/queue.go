package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/storage"

	"github.com/complianceworxs/govledger/internal/clock"
	"github.com/complianceworxs/govledger/internal/idgen"
	"github.com/complianceworxs/govledger/service/messaging"
)

// Message is the on-disk envelope of a spooled payload.
type Message[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	queue     *Queue[T]
	name      string
	processed bool
	mu        sync.Mutex
}

// T returns the message payload.
func (m *Message[T]) T() *T { return &m.Data }

// Ack moves the message from the processing to the delivered directory.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	m.UpdatedAt = clock.Now()
	return m.queue.settle(context.Background(), m, m.queue.deliveredDir)
}

// Nack moves the message to the failed directory with the error recorded.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.processed {
		return fmt.Errorf("message %s already processed", m.ID)
	}
	m.processed = true
	if err != nil {
		m.Error = err.Error()
	}
	m.UpdatedAt = clock.Now()
	return m.queue.settle(context.Background(), m, m.queue.failedDir)
}

// Queue implements a filesystem spool over viant/afs: one JSON file per
// message, moved between pending, processing, delivered and failed
// directories as it progresses. Suitable for escalation fan-out where the
// consumer (mailer, dashboard poller) runs out of process.
type Queue[T any] struct {
	fs            afs.Service
	pendingDir    string
	processingDir string
	deliveredDir  string
	failedDir     string
	mu            sync.Mutex
}

var _ messaging.Queue[any] = (*Queue[any])(nil)

// NewQueue creates a new filesystem-backed queue rooted at basePath.
func NewQueue[T any](fs afs.Service, basePath string) (*Queue[T], error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	q := &Queue[T]{
		fs:            fs,
		pendingDir:    path.Join(basePath, "pending"),
		processingDir: path.Join(basePath, "processing"),
		deliveredDir:  path.Join(basePath, "delivered"),
		failedDir:     path.Join(basePath, "failed"),
	}
	ctx := context.Background()
	for _, dir := range []string{q.pendingDir, q.processingDir, q.deliveredDir, q.failedDir} {
		if exists, _ := fs.Exists(ctx, dir); !exists {
			if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
				return nil, fmt.Errorf("failed to create queue directory %s: %w", dir, err)
			}
		}
	}
	return q, nil
}

// Publish writes a new message into the pending directory.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	now := clock.Now()
	message := &Message[T]{
		ID:        idgen.New(),
		Data:      *t,
		CreatedAt: now,
		UpdatedAt: now,
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	target := path.Join(q.pendingDir, message.ID+".json")
	if err = q.fs.Upload(ctx, target, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to publish message %s: %w", message.ID, err)
	}
	return nil
}

// Consume claims the oldest pending message, or returns nil when the spool
// is empty.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	objects, err := q.fs.List(ctx, q.pendingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	var pending []storage.Object
	for _, obj := range objects {
		if !obj.IsDir() && strings.HasSuffix(obj.Name(), ".json") {
			pending = append(pending, obj)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}

	obj := pending[0]
	data, err := q.fs.DownloadWithURL(ctx, obj.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to read message %s: %w", obj.URL(), err)
	}
	var message Message[T]
	if err := json.Unmarshal(data, &message); err != nil {
		// Park the undecodable file in failed so it stops blocking the spool.
		_ = q.fs.Move(ctx, obj.URL(), path.Join(q.failedDir, "invalid-"+obj.Name()))
		return nil, fmt.Errorf("failed to unmarshal message %s: %w", obj.URL(), err)
	}
	message.queue = q
	message.name = obj.Name()
	message.UpdatedAt = clock.Now()

	// Claim: write into processing first, then remove from pending.
	claimed, err := json.Marshal(&message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claimed message: %w", err)
	}
	if err = q.fs.Upload(ctx, path.Join(q.processingDir, obj.Name()), file.DefaultFileOsMode, bytes.NewReader(claimed)); err != nil {
		return nil, fmt.Errorf("failed to claim message %s: %w", message.ID, err)
	}
	if err = q.fs.Delete(ctx, obj.URL()); err != nil {
		return nil, fmt.Errorf("failed to remove claimed message %s from pending: %w", message.ID, err)
	}
	return &message, nil
}

// settle moves a processing message into its terminal directory.
func (q *Queue[T]) settle(ctx context.Context, m *Message[T], dir string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message %s: %w", m.ID, err)
	}
	if err = q.fs.Upload(ctx, path.Join(dir, m.name), file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to settle message %s: %w", m.ID, err)
	}
	processing := path.Join(q.processingDir, m.name)
	if exists, _ := q.fs.Exists(ctx, processing); exists {
		if err = q.fs.Delete(ctx, processing); err != nil {
			return fmt.Errorf("failed to remove message %s from processing: %w", m.ID, err)
		}
	}
	return nil
}
