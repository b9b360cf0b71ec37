package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/CUknot/chat_backend/logger"
	"github.com/CUknot/chat_backend/models"
	"github.com/CUknot/chat_backend/storage"
	"github.com/CUknot/chat_backend/stores"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	imagePrefix = "chat_images"
	filePrefix  = "chat_files"

	// MaxListLimit caps a single page of room history.
	MaxListLimit = 500

	// defaultContentType is served for stored blobs too short to sniff.
	defaultContentType = "application/octet-stream"
)

// Attachment is an uploaded binary to store alongside a message.
type Attachment struct {
	Kind     string // models.AttachmentImage or models.AttachmentFile
	Filename string
	Size     int64
	Body     io.Reader
}

type AppendInput struct {
	RoomID      uint
	Content     string
	Attachments []Attachment
}

// AttachmentStream is an opened attachment ready to be copied to a client.
type AttachmentStream struct {
	Name        string
	ContentType string
	Body        io.ReadCloser
}

// MessageLog is the append-only history of each room.
type MessageLog struct {
	messages stores.MessageStore
	rooms    stores.RoomStore
	blobs    storage.Storage
	gate     *AccessGate
}

func NewMessageLog(messages stores.MessageStore, rooms stores.RoomStore, blobs storage.Storage, gate *AccessGate) *MessageLog {
	return &MessageLog{messages: messages, rooms: rooms, blobs: blobs, gate: gate}
}

// Append stores a message from the caller. The sender is always the caller.
func (l *MessageLog) Append(ctx context.Context, callerID uint, in AppendInput) (msg *models.Message, err error) {
	if in.RoomID == 0 {
		return nil, Validationf("room is required")
	}
	if err := l.gate.Require(ctx, callerID, in.RoomID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Content) == "" && len(in.Attachments) == 0 {
		return nil, ErrEmptyMessage
	}

	seen := make(map[string]bool, len(in.Attachments))
	for _, att := range in.Attachments {
		if seen[att.Kind] {
			return nil, Validationf("only one %s may be attached", att.Kind)
		}
		seen[att.Kind] = true
	}

	msg = &models.Message{RoomID: in.RoomID, SenderID: callerID}
	if strings.TrimSpace(in.Content) != "" {
		content := in.Content
		msg.Content = &content
	}

	var written []string
	defer func() {
		if err != nil {
			l.discard(ctx, written)
		}
	}()

	for _, att := range in.Attachments {
		key, err := l.storeAttachment(ctx, att)
		if err != nil {
			return nil, err
		}
		written = append(written, key)
		switch att.Kind {
		case models.AttachmentImage:
			msg.Image = &key
		case models.AttachmentFile:
			msg.File = &key
		}
	}

	if err := l.messages.Create(ctx, msg); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().
		Uint(logger.FieldMessageID, msg.ID).
		Uint(logger.FieldRoomID, msg.RoomID).
		Uint(logger.FieldUserID, callerID).
		Int("attachments", len(written)).
		Msg("message appended")
	return msg, nil
}

// List returns the room's messages in creation order.
func (l *MessageLog) List(ctx context.Context, callerID, roomID uint, q stores.MessageQuery) ([]models.Message, error) {
	if q.Limit < 0 || q.Limit > MaxListLimit {
		return nil, Validationf("limit must be between 0 and %d", MaxListLimit)
	}
	if err := l.gate.Require(ctx, callerID, roomID); err != nil {
		return nil, err
	}
	return l.messages.ListByRoom(ctx, roomID, q)
}

// ListForUser returns messages from every room the caller participates in.
func (l *MessageLog) ListForUser(ctx context.Context, callerID uint) ([]models.Message, error) {
	roomIDs, err := l.rooms.IDsForUser(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return l.messages.ListByRooms(ctx, roomIDs)
}

func (l *MessageLog) Get(ctx context.Context, callerID, messageID uint) (*models.Message, error) {
	msg, err := l.messages.FindByID(ctx, messageID)
	if err != nil {
		return nil, notFound(err, ErrMessageNotFound)
	}
	if err := l.gate.Require(ctx, callerID, msg.RoomID); err != nil {
		return nil, err
	}
	return msg, nil
}

// Latest returns the newest message in the room, or nil when it is empty.
func (l *MessageLog) Latest(ctx context.Context, roomID uint) (*models.Message, error) {
	msg, err := l.messages.Latest(ctx, roomID)
	if errors.Is(err, stores.ErrNotFound) {
		return nil, nil
	}
	return msg, err
}

func (l *MessageLog) LatestForRooms(ctx context.Context, roomIDs []uint) (map[uint]models.Message, error) {
	return l.messages.LatestByRooms(ctx, roomIDs)
}

// OpenAttachment streams the image or file of a message the caller may read.
func (l *MessageLog) OpenAttachment(ctx context.Context, callerID, messageID uint, kind string) (*AttachmentStream, error) {
	msg, err := l.Get(ctx, callerID, messageID)
	if err != nil {
		return nil, err
	}
	key := msg.AttachmentKey(kind)
	if key == "" {
		return nil, ErrAttachmentNotFound
	}

	rc, err := l.blobs.Read(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrAttachmentNotFound
		}
		return nil, err
	}

	mtype, body, err := sniff(rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	contentType := defaultContentType
	if mtype != nil {
		contentType = mtype.String()
	}
	return &AttachmentStream{
		Name:        path.Base(key),
		ContentType: contentType,
		Body:        readCloser{Reader: body, Closer: rc},
	}, nil
}

func (l *MessageLog) storeAttachment(ctx context.Context, att Attachment) (string, error) {
	var prefix string
	switch att.Kind {
	case models.AttachmentImage:
		prefix = imagePrefix
	case models.AttachmentFile:
		prefix = filePrefix
	default:
		return "", Validationf("unknown attachment kind %q", att.Kind)
	}

	mtype, body, err := sniff(att.Body)
	if err != nil {
		return "", err
	}
	if mtype == nil {
		return "", ErrEmptyAttachment
	}
	if att.Kind == models.AttachmentImage && !strings.HasPrefix(mtype.String(), "image/") {
		return "", ErrNotAnImage
	}

	key := path.Join(prefix, uuid.NewString(), safeFilename(att.Filename, mtype))
	if err := l.blobs.Write(ctx, key, body, att.Size, mtype.String()); err != nil {
		return "", fmt.Errorf("failed to store attachment: %w", err)
	}
	return key, nil
}

func (l *MessageLog) discard(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := l.blobs.Delete(ctx, key); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to remove orphaned attachment")
		}
	}
}

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

// sniff detects the content type from the head of r and returns a reader
// that still yields the full content. A nil type means r was empty.
func sniff(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	if n == 0 {
		return nil, r, nil
	}
	head = head[:n]
	return mimetype.Detect(head), io.MultiReader(bytes.NewReader(head), r), nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safeFilename(name string, mtype *mimetype.MIME) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Trim(unsafeFilenameChars.ReplaceAllString(name, "_"), "._")
	if name == "" {
		name = "upload" + mtype.Extension()
	}
	return name
}

type readCloser struct {
	io.Reader
	io.Closer
}
