package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"campuschat/internal/domain"
	"campuschat/internal/events"
	"campuschat/internal/repository"
	"campuschat/pkg/apperrors"
)

// In-memory repositories implementing the persistence interfaces, shared by
// the service tests.

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*domain.Conversation
	invites       map[uuid.UUID]*domain.ConversationInvite
	drafts        map[string]*domain.MessageDraft
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[uuid.UUID]*domain.Conversation),
		invites:       make(map[uuid.UUID]*domain.ConversationInvite),
		drafts:        make(map[string]*domain.MessageDraft),
	}
}

func draftKey(conversationID, userID uuid.UUID) string {
	return conversationID.String() + ":" + userID.String()
}

func (f *fakeConversationRepo) Create(_ context.Context, conv *domain.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conv.DirectKey != nil {
		for _, existing := range f.conversations {
			if existing.DirectKey != nil && *existing.DirectKey == *conv.DirectKey && existing.SchoolID == conv.SchoolID {
				return apperrors.ErrAlreadyExists
			}
		}
	}
	clone := *conv
	f.conversations[conv.ID] = &clone
	return nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, schoolID, id uuid.UUID) (domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok || conv.SchoolID != schoolID {
		return domain.Conversation{}, apperrors.ErrNotFound
	}
	return *conv, nil
}

func (f *fakeConversationRepo) GetDirectByKey(_ context.Context, schoolID uuid.UUID, directKey string) (domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, conv := range f.conversations {
		if conv.SchoolID == schoolID && conv.DirectKey != nil && *conv.DirectKey == directKey {
			return *conv, nil
		}
	}
	return domain.Conversation{}, apperrors.ErrNotFound
}

func (f *fakeConversationRepo) UpdateMeta(_ context.Context, schoolID, id uuid.UUID, updates map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok || conv.SchoolID != schoolID {
		return apperrors.ErrNotFound
	}
	if title, ok := updates["title"].(string); ok {
		conv.Title = &title
	}
	if avatar, ok := updates["avatar"].(string); ok {
		conv.Avatar = &avatar
	}
	if archived, ok := updates["is_archived"].(bool); ok {
		conv.IsArchived = archived
	}
	if at, ok := updates["last_message_at"].(time.Time); ok {
		conv.LastMessageAt = &at
	}
	conv.UpdatedAt = time.Now()
	return nil
}

func (f *fakeConversationRepo) Delete(_ context.Context, schoolID, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[id]
	if !ok || conv.SchoolID != schoolID {
		return apperrors.ErrNotFound
	}
	delete(f.conversations, id)
	return nil
}

func (f *fakeConversationRepo) SetArchived(ctx context.Context, schoolID, id uuid.UUID, archived bool) error {
	return f.UpdateMeta(ctx, schoolID, id, map[string]any{"is_archived": archived})
}

func (f *fakeConversationRepo) ListForUser(_ context.Context, schoolID, userID uuid.UUID) ([]domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Conversation
	for _, conv := range f.conversations {
		if conv.SchoolID != schoolID {
			continue
		}
		if _, ok := conv.ParticipantByUser(userID); ok {
			out = append(out, *conv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].CreatedAt, out[j].CreatedAt
		if out[i].LastMessageAt != nil {
			ti = *out[i].LastMessageAt
		}
		if out[j].LastMessageAt != nil {
			tj = *out[j].LastMessageAt
		}
		return ti.After(tj)
	})
	return out, nil
}

func (f *fakeConversationRepo) AddParticipant(_ context.Context, p *domain.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[p.ConversationID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if _, exists := conv.ParticipantByUser(p.UserID); exists {
		return apperrors.ErrAlreadyExists
	}
	conv.Participants = append(conv.Participants, *p)
	return nil
}

func (f *fakeConversationRepo) RemoveParticipant(_ context.Context, conversationID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return apperrors.ErrNotFound
	}
	for i := range conv.Participants {
		if conv.Participants[i].UserID == userID {
			conv.Participants = append(conv.Participants[:i], conv.Participants[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (f *fakeConversationRepo) GetParticipant(_ context.Context, conversationID, userID uuid.UUID) (domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return domain.Participant{}, apperrors.ErrNotFound
	}
	if p, ok := conv.ParticipantByUser(userID); ok {
		return *p, nil
	}
	return domain.Participant{}, apperrors.ErrNotFound
}

func (f *fakeConversationRepo) UpdateParticipantRole(_ context.Context, conversationID, userID uuid.UUID, role domain.ParticipantRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if p, ok := conv.ParticipantByUser(userID); ok {
		p.Role = role
		return nil
	}
	return apperrors.ErrNotFound
}

func (f *fakeConversationRepo) CountOwners(_ context.Context, conversationID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return 0, apperrors.ErrNotFound
	}
	return int64(conv.OwnerCount()), nil
}

func (f *fakeConversationRepo) SetLastReadAt(_ context.Context, conversationID, userID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	conv, ok := f.conversations[conversationID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if p, ok := conv.ParticipantByUser(userID); ok {
		p.LastReadAt = &at
		return nil
	}
	return apperrors.ErrNotFound
}

func (f *fakeConversationRepo) CreateInvite(_ context.Context, inv *domain.ConversationInvite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *inv
	f.invites[inv.ID] = &clone
	return nil
}

func (f *fakeConversationRepo) GetInviteByID(_ context.Context, schoolID, id uuid.UUID) (domain.ConversationInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[id]
	if !ok || inv.SchoolID != schoolID {
		return domain.ConversationInvite{}, apperrors.ErrNotFound
	}
	return *inv, nil
}

func (f *fakeConversationRepo) UpdateInviteStatus(_ context.Context, id uuid.UUID, status domain.InviteStatus, respondedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	inv.Status = status
	inv.RespondedAt = &respondedAt
	return nil
}

func (f *fakeConversationRepo) ListInvitesForInvitee(_ context.Context, schoolID, inviteeID uuid.UUID) ([]domain.ConversationInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ConversationInvite
	for _, inv := range f.invites {
		if inv.SchoolID == schoolID && inv.InviteeID == inviteeID && inv.Status == domain.InviteStatusPending {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeConversationRepo) SaveDraft(_ context.Context, d *domain.MessageDraft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *d
	f.drafts[draftKey(d.ConversationID, d.UserID)] = &clone
	return nil
}

func (f *fakeConversationRepo) GetDraft(_ context.Context, conversationID, userID uuid.UUID) (domain.MessageDraft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.drafts[draftKey(conversationID, userID)]; ok {
		return *d, nil
	}
	return domain.MessageDraft{}, apperrors.ErrNotFound
}

func (f *fakeConversationRepo) DeleteDraft(_ context.Context, conversationID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.drafts, draftKey(conversationID, userID))
	return nil
}

type fakeMessageRepo struct {
	mu          sync.Mutex
	conv        *fakeConversationRepo
	messages    []*domain.Message
	receipts    map[string]*domain.MessageReadReceipt
	reactions   map[uuid.UUID]*domain.MessageReaction
	pins        map[string]*domain.PinnedMessage
	attachments map[uuid.UUID][]domain.MessageAttachment
}

func newFakeMessageRepo(conv *fakeConversationRepo) *fakeMessageRepo {
	return &fakeMessageRepo{
		conv:        conv,
		receipts:    make(map[string]*domain.MessageReadReceipt),
		reactions:   make(map[uuid.UUID]*domain.MessageReaction),
		pins:        make(map[string]*domain.PinnedMessage),
		attachments: make(map[uuid.UUID][]domain.MessageAttachment),
	}
}

func (f *fakeMessageRepo) Create(_ context.Context, m *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *m
	f.messages = append(f.messages, &clone)
	return nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, schoolID, id uuid.UUID) (domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id && m.SchoolID == schoolID {
			return *m, nil
		}
	}
	return domain.Message{}, apperrors.ErrNotFound
}

func (f *fakeMessageRepo) Update(_ context.Context, m *domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.messages {
		if existing.ID == m.ID {
			clone := *m
			f.messages[i] = &clone
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func cursorLess(a, b *domain.Message) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID.String() < b.ID.String()
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func (f *fakeMessageRepo) GetPage(_ context.Context, conversationID uuid.UUID, cursor *repository.Cursor, take int, direction repository.Direction) ([]domain.Message, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rows []*domain.Message
	for _, m := range f.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if cursor != nil {
			pivot := &domain.Message{CreatedAt: cursor.CreatedAt, ID: cursor.ID}
			if direction == repository.DirectionAfter && !cursorLess(pivot, m) {
				continue
			}
			if direction == repository.DirectionBefore && !cursorLess(m, pivot) {
				continue
			}
		}
		rows = append(rows, m)
	}
	sort.Slice(rows, func(i, j int) bool { return cursorLess(rows[i], rows[j]) })

	hasMore := len(rows) > take
	if hasMore {
		if direction == repository.DirectionBefore {
			rows = rows[len(rows)-take:]
		} else {
			rows = rows[:take]
		}
	}

	out := make([]domain.Message, 0, len(rows))
	for _, m := range rows {
		out = append(out, *m)
	}
	return out, hasMore, nil
}

func receiptKey(messageID, userID uuid.UUID) string {
	return messageID.String() + ":" + userID.String()
}

func (f *fakeMessageRepo) UpsertReadReceipt(_ context.Context, r *domain.MessageReadReceipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *r
	f.receipts[receiptKey(r.MessageID, r.UserID)] = &clone
	return nil
}

func (f *fakeMessageRepo) GetReadReceipts(_ context.Context, messageID uuid.UUID) ([]domain.MessageReadReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.MessageReadReceipt
	for _, r := range f.receipts {
		if r.MessageID == messageID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) AddReaction(_ context.Context, r *domain.MessageReaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reactions {
		if existing.MessageID == r.MessageID && existing.UserID == r.UserID && existing.Emoji == r.Emoji {
			return apperrors.ErrAlreadyExists
		}
	}
	clone := *r
	f.reactions[r.ID] = &clone
	return nil
}

func (f *fakeMessageRepo) GetReactionByID(_ context.Context, id uuid.UUID) (domain.MessageReaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reactions[id]; ok {
		return *r, nil
	}
	return domain.MessageReaction{}, apperrors.ErrNotFound
}

func (f *fakeMessageRepo) RemoveReaction(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reactions[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.reactions, id)
	return nil
}

func pinKey(conversationID, messageID uuid.UUID) string {
	return conversationID.String() + ":" + messageID.String()
}

func (f *fakeMessageRepo) Pin(_ context.Context, p *domain.PinnedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pinKey(p.ConversationID, p.MessageID)
	if _, ok := f.pins[key]; ok {
		return apperrors.ErrAlreadyExists
	}
	clone := *p
	f.pins[key] = &clone
	return nil
}

func (f *fakeMessageRepo) Unpin(_ context.Context, conversationID, messageID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pins, pinKey(conversationID, messageID))
	return nil
}

func (f *fakeMessageRepo) ListPinned(_ context.Context, conversationID uuid.UUID) ([]domain.PinnedMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PinnedMessage
	for _, p := range f.pins {
		if p.ConversationID == conversationID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) CreateAttachment(_ context.Context, a *domain.MessageAttachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachments[a.MessageID] = append(f.attachments[a.MessageID], *a)
	return nil
}

func (f *fakeMessageRepo) GetAttachments(_ context.Context, messageID uuid.UUID) ([]domain.MessageAttachment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.MessageAttachment(nil), f.attachments[messageID]...), nil
}

func (f *fakeMessageRepo) GetUnreadTotal(ctx context.Context, schoolID, userID uuid.UUID) (int64, error) {
	counts, err := f.GetUnreadCounts(ctx, schoolID, userID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, c := range counts {
		total += c
	}
	return total, nil
}

func (f *fakeMessageRepo) GetUnreadCounts(_ context.Context, schoolID, userID uuid.UUID) (map[uuid.UUID]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[uuid.UUID]int64)
	for _, m := range f.messages {
		if m.SchoolID != schoolID || m.SenderID == userID || m.IsDeleted {
			continue
		}
		conv, ok := f.conv.conversations[m.ConversationID]
		if !ok {
			continue
		}
		p, ok := conv.ParticipantByUser(userID)
		if !ok {
			continue
		}
		if p.LastReadAt != nil && !m.CreatedAt.After(*p.LastReadAt) {
			continue
		}
		counts[m.ConversationID]++
	}
	return counts, nil
}

// fakeTxManager runs the unit of work directly against the fakes; the
// services under test only care that the same repositories see the writes.
type fakeTxManager struct {
	conv *fakeConversationRepo
	msg  *fakeMessageRepo
}

func (m *fakeTxManager) Do(ctx context.Context, fn func(r repository.Repos) error) error {
	return fn(repository.Repos{Conversations: m.conv, Messages: m.msg})
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *capturePublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) byName(name string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
