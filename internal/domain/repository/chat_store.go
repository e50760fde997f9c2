package repository

import (
	"context"

	"github.com/chatvault/chatvault/internal/domain/entity"
)

// ChatStore 只读会话数据访问接口
type ChatStore interface {
	// ChatByID 根据 rowid 查找会话
	ChatByID(ctx context.Context, chatID int64) (*entity.Chat, error)

	// ChatByIdentifier 根据标识串查找会话
	ChatByIdentifier(ctx context.Context, identifier string) (*entity.Chat, error)

	// ListChats 列出全部会话
	ListChats(ctx context.Context) ([]*entity.Chat, error)

	// MessagesForChat 返回会话的全部消息, 按发送时间升序
	MessagesForChat(ctx context.Context, chatID int64) ([]*entity.Message, error)

	// AttachmentsForMessage 返回消息的附件
	AttachmentsForMessage(ctx context.Context, messageID int64) ([]*entity.Attachment, error)
}

// NameResolver resolves a handle identifier (phone number or email) to a
// display name. Lookups may be slow or fail; a false return means "fall
// back to the raw identifier", never an abort.
type NameResolver interface {
	ResolveDisplayName(ctx context.Context, identifier string) (string, bool)
}

// NameResolverFunc adapts a plain function to NameResolver.
type NameResolverFunc func(ctx context.Context, identifier string) (string, bool)

// ResolveDisplayName 实现 NameResolver
func (f NameResolverFunc) ResolveDisplayName(ctx context.Context, identifier string) (string, bool) {
	return f(ctx, identifier)
}
